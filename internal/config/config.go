package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds deployment parameters for a single venus-deploy invocation.
type Config struct {
	// Host is the SSH connection target, e.g. root@10.1.87.45.
	Host string `yaml:"host"`
	// RemotePath is the absolute install directory on the target device.
	RemotePath string `yaml:"remote_path"`
	// SourceDir is the local directory to package and deploy.
	SourceDir string `yaml:"source"`
	// Timeout bounds each external ssh/scp invocation.
	Timeout time.Duration `yaml:"timeout"`
	// ExcludeNames lists extra path-component names to skip while archiving,
	// merged with the built-in defaults.
	ExcludeNames []string `yaml:"exclude_names"`
	// ExcludeSuffixes lists extra filename suffixes to skip while archiving,
	// merged with the built-in defaults.
	ExcludeSuffixes []string `yaml:"exclude_suffixes"`
	// SkipBackup suppresses the remote backup step. Set per invocation,
	// never persisted.
	SkipBackup bool `yaml:"-"`
	// DryRun logs the remote command instead of executing it. Set per
	// invocation, never persisted.
	DryRun bool `yaml:"-"`
}

const (
	// DefaultConfigFilename is the default filename for deployment settings.
	DefaultConfigFilename = "venus-deploy-settings.yaml"

	// DefaultHost is the factory-default SSH target of a Venus OS device.
	DefaultHost = "root@10.1.87.45"

	// DefaultRemotePath is where the application lives on the device.
	DefaultRemotePath = "/data/apps/dbus-serialbattery"

	// DefaultSourceDir is the local directory packaged by default.
	DefaultSourceDir = "dbus-serialbattery"

	// DefaultTimeout is the default duration for a single ssh/scp invocation.
	DefaultTimeout = 5 * time.Minute

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errHostRequired is returned when the SSH target is missing.
	errHostRequired = errors.New("SSH host must be provided")
	// errRemotePathRequired is returned when the remote install path is missing.
	errRemotePathRequired = errors.New("remote path must be provided")
	// errRemotePathNotAbsolute is returned when the remote path is not absolute.
	errRemotePathNotAbsolute = errors.New("remote path must be absolute")
	// errRemotePathNoBase is returned when the remote path has no final component.
	errRemotePathNoBase = errors.New("remote path must name a directory, not the filesystem root")
	// errSourceRequired is returned when the local source directory is missing.
	errSourceRequired = errors.New("source directory must be provided")
)

// Default returns a Config populated with the factory defaults.
func Default() *Config {
	return &Config{
		Host:       DefaultHost,
		RemotePath: DefaultRemotePath,
		SourceDir:  DefaultSourceDir,
		Timeout:    DefaultTimeout,
	}
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if strings.TrimSpace(cfg.Host) == "" {
		return errHostRequired
	}

	remotePath := strings.TrimSpace(cfg.RemotePath)
	if remotePath == "" {
		return errRemotePathRequired
	}

	// Remote paths always use forward slashes regardless of the local OS.
	if !strings.HasPrefix(remotePath, "/") {
		return fmt.Errorf("%w: %s", errRemotePathNotAbsolute, remotePath)
	}

	if base := path.Base(path.Clean(remotePath)); base == "/" || base == "." {
		return errRemotePathNoBase
	}

	if strings.TrimSpace(cfg.SourceDir) == "" {
		return errSourceRequired
	}

	// Set default timeout if not specified.
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return nil
}
