package deployer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Felixrising/venus-os-dbus-serialbattery/internal/archive"
	"github.com/Felixrising/venus-os-dbus-serialbattery/internal/config"
	"github.com/Felixrising/venus-os-dbus-serialbattery/internal/logger"
	"github.com/Felixrising/venus-os-dbus-serialbattery/internal/transport"
)

// Options contains inputs for the deployer entry point. String fields left
// empty fall back to the settings file and the factory defaults.
type Options struct {
	// ConfigPath is an optional path to a YAML settings file.
	ConfigPath string
	// Host is the SSH connection target.
	Host string
	// RemotePath is the absolute install directory on the target.
	RemotePath string
	// SourceDir is the local directory to package and deploy.
	SourceDir string
	// SkipBackup suppresses the remote backup step.
	SkipBackup bool
	// DryRun logs the remote command instead of executing it.
	DryRun bool
}

// errNameMismatch guards the extraction invariant: the archive's root entry
// (source base name) must equal the remote target's final path component,
// otherwise remote extraction would create a differently named directory.
var errNameMismatch = errors.New("source directory base name must match the remote path base name")

// deployment holds the resolved state for a single deployment run.
// It is unexported—callers should use Run, which encapsulates setup and validation.
type deployment struct {
	// cfg is the fully resolved, validated configuration.
	cfg *config.Config
	// client reaches the target host through the ssh/scp binaries.
	client *transport.Client
	// remoteBase is the final component of the remote install path.
	remoteBase string
	// remoteParent is the directory containing the remote install path.
	remoteParent string
	// remoteTemp is where the archive lands on the target before extraction.
	remoteTemp string
}

// Run executes the deployment workflow.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "venus-deploy")

	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}

	dep, err := newDeployment(cfg)
	if err != nil {
		return fmt.Errorf("initialize deployment: %w", err)
	}

	if err = dep.Run(ctx); err != nil {
		return fmt.Errorf("deployment failed: %w", err)
	}

	return nil
}

// resolveConfig layers explicit options over the settings file (when one is
// given or the default one exists) over the factory defaults.
func resolveConfig(opts *Options) (*config.Config, error) {
	cfg := config.Default()

	switch {
	case opts.ConfigPath != "":
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}

		cfg = loaded
	default:
		if _, err := os.Stat(config.DefaultConfigFilename); err == nil {
			loaded, err := config.Load(config.DefaultConfigFilename)
			if err != nil {
				return nil, err
			}

			cfg = loaded
		}
	}

	if opts.Host != "" {
		cfg.Host = opts.Host
	}

	if opts.RemotePath != "" {
		cfg.RemotePath = opts.RemotePath
	}

	if opts.SourceDir != "" {
		cfg.SourceDir = opts.SourceDir
	}

	cfg.SkipBackup = opts.SkipBackup
	cfg.DryRun = opts.DryRun

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDeployment validates the environment and derives the remote layout.
// Tool presence and local-input checks happen here, before any network
// activity.
func newDeployment(cfg *config.Config) (*deployment, error) {
	if err := transport.EnsureTools(); err != nil {
		return nil, err
	}

	sourceInfo, err := os.Stat(cfg.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("source directory %s: %w", cfg.SourceDir, err)
	}

	if !sourceInfo.IsDir() {
		return nil, fmt.Errorf("source %s: %w", cfg.SourceDir, os.ErrInvalid)
	}

	absSource, err := filepath.Abs(cfg.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("resolve source path: %w", err)
	}

	remotePath := path.Clean(strings.TrimSpace(cfg.RemotePath))
	remoteBase := path.Base(remotePath)

	if filepath.Base(absSource) != remoteBase {
		return nil, fmt.Errorf("%w: %s vs %s", errNameMismatch, filepath.Base(absSource), remoteBase)
	}

	return &deployment{
		cfg:          cfg,
		client:       transport.NewClient(cfg.Host, transport.WithTimeout(cfg.Timeout)),
		remoteBase:   remoteBase,
		remoteParent: path.Dir(remotePath),
		remoteTemp:   "/tmp/" + remoteBase + "-deploy.tar.gz",
	}, nil
}

// Run walks the linear deployment sequence: archive, upload, remote swap,
// report. The local archive is removed on every exit path once it exists.
func (d *deployment) Run(ctx context.Context) error {
	logger.InfoKV(ctx, "Packaging source directory", "source", d.cfg.SourceDir)

	rules := archive.DefaultRules(d.cfg.ExcludeNames, d.cfg.ExcludeSuffixes)

	result, err := archive.Build(ctx, d.cfg.SourceDir, rules)
	if err != nil {
		return err
	}

	// The archive is exclusively owned by this run; delete it no matter
	// which of the following steps fails.
	defer func() {
		if removeErr := os.Remove(result.Path); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			logger.WarnKV(ctx, "Unable to remove temporary archive", "path", result.Path, "error", removeErr)
		}
	}()

	script := d.remoteScript(result.Digest)

	if d.cfg.DryRun {
		logger.InfoKV(ctx, "Dry run, remote command not executed",
			"archive", result.Path,
			"destination", d.cfg.Host+":"+d.remoteTemp)
		logger.Info(ctx, script)

		return nil
	}

	logger.InfoKV(ctx, "Uploading archive", "destination", d.cfg.Host+":"+d.remoteTemp)

	if err = d.client.Upload(ctx, result.Path, d.remoteTemp); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Deploying", "target", d.cfg.Host+":"+d.cfg.RemotePath)

	if err = d.client.Execute(ctx, script); err != nil {
		return err
	}

	if d.cfg.SkipBackup {
		logger.Info(ctx, "Deployment completed, no backup performed")
	} else {
		logger.Info(ctx, "Deployment completed, previous install backed up with timestamp suffix")
	}

	return nil
}
