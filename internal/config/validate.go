package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jchantrell/assetpack/internal/bundle"
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := logLevels[strings.ToLower(c.LogLevel)]; !ok {
		errs = append(errs, fmt.Errorf("log_level %q: must be one of debug, info, warn, error", c.LogLevel))
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q: must be text or json", c.LogFormat))
	}

	if _, err := bundle.ParseLevel(c.Compression); err != nil {
		errs = append(errs, fmt.Errorf("compression: %w", err))
	}

	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers %d: cannot be negative", c.Workers))
	}

	if c.Database == "" {
		errs = append(errs, errors.New("database path cannot be empty"))
	}

	for i, m := range c.Mounts {
		if strings.TrimSpace(m) == "" {
			errs = append(errs, fmt.Errorf("mounts[%d]: path cannot be empty", i))
		}
	}

	return errors.Join(errs...)
}

// Level returns the slog level for LogLevel, defaulting to info.
func (c *Config) Level() slog.Level {
	if level, ok := logLevels[strings.ToLower(c.LogLevel)]; ok {
		return level
	}
	return slog.LevelInfo
}

// CompressionLevel parses Compression.
func (c *Config) CompressionLevel() (bundle.Level, error) {
	return bundle.ParseLevel(c.Compression)
}
