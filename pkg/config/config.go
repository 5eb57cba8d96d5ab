// Package config loads server settings from file, environment and defaults.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the server needs to start.
type Config struct {
	HTTPAddr       string        `mapstructure:"http_addr"`
	DBPath         string        `mapstructure:"db_path"`
	LockWait       time.Duration `mapstructure:"lock_wait"`
	VerifyInterval time.Duration `mapstructure:"verify_interval"`
	CORSOrigins    []string      `mapstructure:"cors_origins"`
	LogLevel       string        `mapstructure:"log_level"`
	LogPretty      bool          `mapstructure:"log_pretty"`
	SeedDemo       bool          `mapstructure:"seed_demo"`
}

// Load reads configuration in precedence order: defaults, then an optional
// config file (path or ./config.{yaml,...}), then INVENTORY_* environment
// variables (INVENTORY_HTTP_ADDR, INVENTORY_DB_PATH, ...).
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("db_path", "./data/inventory.db")
	v.SetDefault("lock_wait", "3s")
	v.SetDefault("verify_interval", "10m")
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
	v.SetDefault("seed_demo", false)

	v.SetEnvPrefix("INVENTORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			// A missing default config file is fine; a malformed one is not.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
