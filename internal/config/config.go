// Package config loads server and CLI configuration via viper.
//
// Resolution order: defaults, then an optional config file
// (logship.yaml in the working directory or /etc/logship), then
// LOGSHIP_* environment variables. Storage credentials are request data,
// not configuration, and never appear here.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full process configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Export  ExportConfig  `mapstructure:"export"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LoggingConfig configures the process loggers.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// ExportConfig tunes the export pipeline.
type ExportConfig struct {
	// RateLimit is the maximum storage requests per second per export.
	// Zero means unlimited.
	RateLimit float64 `mapstructure:"rate_limit"`

	// ListMaxKeys caps each listing call. Zero uses backend defaults.
	ListMaxKeys int `mapstructure:"list_max_keys"`
}

// Load reads configuration from defaults, file, and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.json", false)
	v.SetDefault("export.rate_limit", 0.0)
	v.SetDefault("export.list_max_keys", 0)

	v.SetConfigName("logship")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/logship")

	v.SetEnvPrefix("LOGSHIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; everything has defaults.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
