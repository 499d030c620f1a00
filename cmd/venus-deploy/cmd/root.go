package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Felixrising/venus-os-dbus-serialbattery/internal/config"
	"github.com/Felixrising/venus-os-dbus-serialbattery/internal/logger"
	"github.com/Felixrising/venus-os-dbus-serialbattery/internal/service/deployer"
	"github.com/Felixrising/venus-os-dbus-serialbattery/internal/version"
)

var (
	// configPath to the optional configuration YAML file.
	configPath string
	// host is the SSH connection target.
	host string
	// remotePath is the absolute install directory on the target.
	remotePath string
	// sourceDir is the local directory to package.
	sourceDir string
	// skipBackup suppresses the remote backup step.
	skipBackup bool
	// dryRun logs the remote command instead of executing it.
	dryRun bool
	// logLevel sets the minimum logging level.
	logLevel string

	// rootCmd represents the base command for deploying to a Venus OS device.
	rootCmd = &cobra.Command{
		Use:   "venus-deploy",
		Short: "Package a local directory and deploy it to a Venus OS device over SSH",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("unknown log level: %q", logLevel)
			}

			logger.SetLevel(level)

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &deployer.Options{
				ConfigPath: configPath,
				SkipBackup: skipBackup,
				DryRun:     dryRun,
			}

			// Pass only flags the caller set explicitly, so a settings file
			// is not overridden by flag defaults.
			if cmd.Flags().Changed("host") {
				options.Host = host
			}

			if cmd.Flags().Changed("remote-path") {
				options.RemotePath = remotePath
			}

			if cmd.Flags().Changed("source") {
				options.SourceDir = sourceDir
			}

			return deployer.Run(ctx, options)
		},
	}
)

// Execute runs the venus-deploy CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVar(&host, "host", config.DefaultHost, "SSH connection target")
	rootCmd.Flags().StringVar(&remotePath, "remote-path", config.DefaultRemotePath, "absolute remote install directory")
	rootCmd.Flags().StringVar(&sourceDir, "source", config.DefaultSourceDir, "local source directory to package")
	rootCmd.Flags().BoolVar(&skipBackup, "skip-backup", false, "do not create a backup tarball on the target before replacing")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the remote command instead of executing it")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "",
		"path to configuration file (default "+config.DefaultConfigFilename+" when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "minimum logging level (debug|info|warn|error|fatal)")
}
