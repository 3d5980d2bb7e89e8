package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jchantrell/assetpack/internal/cache"
	"github.com/spf13/viper"
)

type Config struct {
	Database    string   `mapstructure:"database"`
	Compression string   `mapstructure:"compression"`
	Workers     int      `mapstructure:"workers"`
	Mounts      []string `mapstructure:"mounts"`
	LogLevel    string   `mapstructure:"log_level"`
	LogFormat   string   `mapstructure:"log_format"`
}

// Load reads configuration from cfgFile, or from assetpack.yaml in the home
// or working directory when cfgFile is empty. A missing default file is not
// an error. ASSETPACK_* environment variables override file values.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("database", cache.CacheManager().GetCatalogPath())
	v.SetDefault("compression", "fast")
	v.SetDefault("workers", 0)
	v.SetDefault("mounts", []string{})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetEnvPrefix("assetpack")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Config file handling
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.SetConfigName("assetpack")
		v.SetConfigType("yaml")
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
