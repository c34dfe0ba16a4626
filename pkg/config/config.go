package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the module configuration.
type Config struct {
	Mongo MongoConfig `mapstructure:"mongo"`
	Log   LogConfig   `mapstructure:"log"`
}

// MongoConfig identifies the document database holding user records.
type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	Collection     string        `mapstructure:"collection"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// EnableIndexes controls index provisioning at store construction.
	// Hosted databases that forbid dynamic index management set it false.
	EnableIndexes bool `mapstructure:"enable_indexes"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Environment string `mapstructure:"environment"`
	Encoding    string `mapstructure:"encoding"`
}

// Load reads configuration from config.yaml, an optional per-environment
// overlay (config.<APP_ENV>.yaml) and environment variables, in that order
// of precedence from lowest to highest.
func Load() (*Config, error) {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/userstore")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No base config file; continue with env vars and defaults.
	}

	if env := os.Getenv("APP_ENV"); env != "" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to merge %s overlay: %w", env, err)
			}
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "identity")
	viper.SetDefault("mongo.collection", "users")
	viper.SetDefault("mongo.connect_timeout", "10s")
	viper.SetDefault("mongo.enable_indexes", true)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.environment", "development")
	viper.SetDefault("log.encoding", "console")
}

func validateConfig(cfg *Config) error {
	if cfg.Mongo.URI == "" {
		return fmt.Errorf("mongo uri cannot be empty")
	}

	if cfg.Mongo.Database == "" {
		return fmt.Errorf("no database name specified")
	}

	if cfg.Mongo.ConnectTimeout < 0 {
		return fmt.Errorf("mongo connect timeout cannot be negative")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, cfg.Log.Level) {
		return fmt.Errorf("invalid log level: %s", cfg.Log.Level)
	}

	validEncodings := []string{"json", "console"}
	if !contains(validEncodings, cfg.Log.Encoding) {
		return fmt.Errorf("invalid log encoding: %s", cfg.Log.Encoding)
	}

	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
