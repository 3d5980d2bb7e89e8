package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jchantrell/assetpack/internal/config"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	cfg     *config.Config
	cfgFile string

	dbPath     string
	mounts     []string
	logLevel   string
	logFormat  string
	noProgress bool
)

var rootCmd = &cobra.Command{
	Use:   "assetpack",
	Short: "Pack and read LZ4 asset bundles",
	Long: `assetpack builds LZ4-compressed bundle files from loose directories and
reads them back through a virtual filesystem that layers bundles and loose
directories, with the most recently mounted source winning.

Bundle contents can be recorded in a SQLite catalog so assets are found by
their stable key rather than their path.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if cmd.Flags().Changed("database") {
			cfg.Database = dbPath
		}
		if cmd.Flags().Changed("mount") {
			cfg.Mounts = append(cfg.Mounts, mounts...)
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormat
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid flags: %w", err)
		}

		slog.SetDefault(slog.New(newLogHandler(cfg)))

		slog.Debug("Configuration",
			"database", cfg.Database,
			"compression", cfg.Compression,
			"workers", cfg.Workers,
			"mounts", cfg.Mounts,
			"log_level", cfg.LogLevel,
			"log_format", cfg.LogFormat)

		return nil
	},
}

func newLogHandler(cfg *config.Config) slog.Handler {
	if cfg.LogFormat == "json" {
		return slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.Level(),
		})
	}
	return tint.NewHandler(os.Stderr, &tint.Options{
		Level: cfg.Level(),
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is assetpack.yaml in pwd or home)")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "database", "d", "", "catalog database path")
	rootCmd.PersistentFlags().StringArrayVarP(&mounts, "mount", "m", nil, "bundle file or loose directory to mount, later mounts win (repeatable)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bar")
}
