package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing host.
	cfg := new(Config)

	err := Validate(cfg)
	require.Error(t, err)

	// Missing remote path.
	cfg = &Config{Host: "root@192.168.1.7"}

	err = Validate(cfg)
	require.Error(t, err)

	// Relative remote path.
	cfg = &Config{
		Host:       "root@192.168.1.7",
		RemotePath: "data/apps/x",
		SourceDir:  "x",
	}

	err = Validate(cfg)
	require.Error(t, err)

	// Remote path with no final component.
	cfg = &Config{
		Host:       "root@192.168.1.7",
		RemotePath: "/",
		SourceDir:  "x",
	}

	err = Validate(cfg)
	require.Error(t, err)

	// Okay; zero timeout replaced by the default.
	cfg = &Config{
		Host:       "root@192.168.1.7",
		RemotePath: "/data/apps/x",
		SourceDir:  "x",
	}

	err = Validate(cfg)
	require.NoError(t, err)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
}

// TestDefault ensures the factory defaults pass validation unchanged.
func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultHost, cfg.Host)
	require.Equal(t, DefaultRemotePath, cfg.RemotePath)
	require.Equal(t, DefaultSourceDir, cfg.SourceDir)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := &Config{
		Host:            "root@10.1.87.45",
		RemotePath:      "/data/apps/dbus-serialbattery",
		SourceDir:       "dbus-serialbattery",
		Timeout:         2 * time.Minute,
		ExcludeNames:    []string{"node_modules"},
		ExcludeSuffixes: []string{".log"},
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Host, loaded.Host)
	require.Equal(t, cfg.RemotePath, loaded.RemotePath)
	require.Equal(t, cfg.SourceDir, loaded.SourceDir)
	require.Equal(t, cfg.Timeout, loaded.Timeout)
	require.Equal(t, cfg.ExcludeNames, loaded.ExcludeNames)
	require.Equal(t, cfg.ExcludeSuffixes, loaded.ExcludeSuffixes)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}
