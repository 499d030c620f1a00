package deployer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Felixrising/venus-os-dbus-serialbattery/internal/config"
)

// writeStub places an executable shell script named name into dir.
func writeStub(t *testing.T, dir, name, body string) {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"+body+"\n"), 0o755))
}

// stubTools puts fake ssh/scp binaries on PATH that append their arguments
// to a record file, one invocation per line.
func stubTools(t *testing.T) (recordPath string) {
	t.Helper()

	dir := t.TempDir()
	recordPath = filepath.Join(dir, "record.log")

	for _, name := range []string{"ssh", "scp"} {
		writeStub(t, dir, name, `printf '%s ' "$0" "$@" >> "`+recordPath+`"; printf '\n' >> "`+recordPath+`"`)
	}

	t.Setenv("PATH", dir)

	return recordPath
}

// makeSource builds a local tree named base under a fresh temp dir.
func makeSource(t *testing.T, base string) string {
	t.Helper()

	source := filepath.Join(t.TempDir(), base)
	require.NoError(t, os.MkdirAll(filepath.Join(source, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(source, ".git", "config"), []byte("[core]"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(source, "app.py"), []byte("print('hi')"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(source, "app.pyc"), []byte{0}, 0o644))

	return source
}

// tempArchives lists venus-deploy temp archives currently on disk.
func tempArchives(t *testing.T) map[string]struct{} {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "venus-deploy-*.tar.gz"))
	require.NoError(t, err)

	set := make(map[string]struct{}, len(matches))
	for _, match := range matches {
		set[match] = struct{}{}
	}

	return set
}

// requireNoNewArchives asserts the run left no temporary archive behind.
func requireNoNewArchives(t *testing.T, before map[string]struct{}) {
	t.Helper()

	for match := range tempArchives(t) {
		_, existed := before[match]
		require.True(t, existed, "leftover archive %s", match)
	}
}

// TestResolveConfig_FlagsOverrideFile layers flags over a settings file.
func TestResolveConfig_FlagsOverrideFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, config.Save(path, &config.Config{
		Host:       "root@192.168.1.2",
		RemotePath: "/data/apps/filehost",
		SourceDir:  "filehost",
	}))

	cfg, err := resolveConfig(&Options{
		ConfigPath: path,
		Host:       "root@10.1.87.45",
		SkipBackup: true,
		DryRun:     true,
	})
	require.NoError(t, err)
	require.Equal(t, "root@10.1.87.45", cfg.Host)
	require.Equal(t, "/data/apps/filehost", cfg.RemotePath)
	require.Equal(t, "filehost", cfg.SourceDir)
	require.True(t, cfg.SkipBackup)
	require.True(t, cfg.DryRun)
}

// TestResolveConfig_Defaults falls back to factory defaults with no file.
func TestResolveConfig_Defaults(t *testing.T) {
	cfg, err := resolveConfig(&Options{})
	require.NoError(t, err)
	require.Equal(t, config.DefaultHost, cfg.Host)
	require.Equal(t, config.DefaultRemotePath, cfg.RemotePath)
	require.Equal(t, config.DefaultSourceDir, cfg.SourceDir)
}

// TestResolveConfig_MissingExplicitFile errors when --config names a
// nonexistent file instead of silently using defaults.
func TestResolveConfig_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := resolveConfig(&Options{ConfigPath: filepath.Join(t.TempDir(), "nope.yaml")})
	require.Error(t, err)
}

// TestRun_MissingTools checks that nothing happens when ssh/scp are absent.
func TestRun_MissingTools(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	before := tempArchives(t)

	err := Run(context.Background(), &Options{
		Host:       "root@10.1.87.45",
		RemotePath: "/data/apps/proj",
		SourceDir:  makeSource(t, "proj"),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing required commands")

	requireNoNewArchives(t, before)
}

// TestRun_MissingSource checks that no archive is built and no network call
// happens when the source directory does not exist.
func TestRun_MissingSource(t *testing.T) {
	recordPath := stubTools(t)
	before := tempArchives(t)

	err := Run(context.Background(), &Options{
		Host:       "root@10.1.87.45",
		RemotePath: "/data/apps/proj",
		SourceDir:  filepath.Join(t.TempDir(), "proj"),
	})
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = os.Stat(recordPath)
	require.ErrorIs(t, err, os.ErrNotExist)

	requireNoNewArchives(t, before)
}

// TestRun_NameMismatch enforces the root-entry invariant before any upload.
func TestRun_NameMismatch(t *testing.T) {
	recordPath := stubTools(t)

	err := Run(context.Background(), &Options{
		Host:       "root@10.1.87.45",
		RemotePath: "/data/apps/other-name",
		SourceDir:  makeSource(t, "proj"),
	})
	require.ErrorIs(t, err, errNameMismatch)

	_, err = os.Stat(recordPath)
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestRun_EndToEnd drives a full deployment against stubbed ssh/scp and
// inspects the recorded invocations.
func TestRun_EndToEnd(t *testing.T) {
	recordPath := stubTools(t)
	before := tempArchives(t)

	err := Run(context.Background(), &Options{
		Host:       "root@10.1.87.45",
		RemotePath: "/data/apps/proj",
		SourceDir:  makeSource(t, "proj"),
	})
	require.NoError(t, err)

	contents, err := os.ReadFile(recordPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(contents)), "\n")
	require.Len(t, lines, 2)

	// Upload first, then the composite remote command.
	require.Contains(t, lines[0], "scp ")
	require.Contains(t, lines[0], "root@10.1.87.45:/tmp/proj-deploy.tar.gz")
	require.Contains(t, lines[1], "ssh root@10.1.87.45 set -euo pipefail; ")
	require.Contains(t, lines[1], "if [ -d proj ]")
	require.Contains(t, lines[1], "tar xzf /tmp/proj-deploy.tar.gz -C /data/apps")
	require.Contains(t, lines[1], "rm -f /tmp/proj-deploy.tar.gz")

	requireNoNewArchives(t, before)
}

// TestRun_SkipBackup ensures the remote command carries no backup clause.
func TestRun_SkipBackup(t *testing.T) {
	recordPath := stubTools(t)

	err := Run(context.Background(), &Options{
		Host:       "root@10.1.87.45",
		RemotePath: "/data/apps/proj",
		SourceDir:  makeSource(t, "proj"),
		SkipBackup: true,
	})
	require.NoError(t, err)

	contents, err := os.ReadFile(recordPath)
	require.NoError(t, err)
	require.NotContains(t, string(contents), "if [ -d")
	require.NotContains(t, string(contents), "backup")
}

// TestRun_RemoteFailureCleansArchive verifies the temp archive is removed
// even when the remote command fails.
func TestRun_RemoteFailureCleansArchive(t *testing.T) {
	dir := t.TempDir()
	recordPath := filepath.Join(dir, "record.log")
	writeStub(t, dir, "scp", `printf 'scp %s\n' "$*" >> "`+recordPath+`"`)
	writeStub(t, dir, "ssh", "exit 1")
	t.Setenv("PATH", dir)

	before := tempArchives(t)

	err := Run(context.Background(), &Options{
		Host:       "root@10.1.87.45",
		RemotePath: "/data/apps/proj",
		SourceDir:  makeSource(t, "proj"),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "remote command on root@10.1.87.45")

	// The upload happened, then the failure.
	_, err = os.Stat(recordPath)
	require.NoError(t, err)

	requireNoNewArchives(t, before)
}

// TestRun_DryRun builds the archive but never invokes ssh or scp.
func TestRun_DryRun(t *testing.T) {
	recordPath := stubTools(t)
	before := tempArchives(t)

	err := Run(context.Background(), &Options{
		Host:       "root@10.1.87.45",
		RemotePath: "/data/apps/proj",
		SourceDir:  makeSource(t, "proj"),
		DryRun:     true,
	})
	require.NoError(t, err)

	_, err = os.Stat(recordPath)
	require.ErrorIs(t, err, os.ErrNotExist)

	requireNoNewArchives(t, before)
}
