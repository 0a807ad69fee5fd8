// File: control/config.go
// Author: momentics <momentics@gmail.com>
//
// Runtime tuning configuration with file/env loading.

package control

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config carries the tunables of one runtime instance.
type Config struct {
	// MaxSources bounds the I/O source table. Registration beyond this
	// fails with a table-exhaustion error.
	MaxSources int `mapstructure:"max_sources"`

	// MaxEvents is the OS poll batch size per drive iteration.
	MaxEvents int `mapstructure:"max_events"`

	// DriveTimeout bounds the reactor wait inside BlockOn when the
	// ready queue is empty. The wait must stay bounded so work
	// submitted from other threads is observed promptly.
	DriveTimeout time.Duration `mapstructure:"drive_timeout"`
}

// DefaultConfig returns the tuning used when no config source is given.
func DefaultConfig() Config {
	return Config{
		MaxSources:   4096,
		MaxEvents:    128,
		DriveTimeout: 10 * time.Millisecond,
	}
}

// LoadConfig reads configuration from the given file (optional) and the
// PLUGRT_* environment, falling back to defaults for unset keys.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	def := DefaultConfig()
	v.SetDefault("max_sources", def.MaxSources)
	v.SetDefault("max_events", def.MaxEvents)
	v.SetDefault("drive_timeout", def.DriveTimeout)

	v.SetEnvPrefix("plugrt")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrap(err, "read config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "unmarshal config")
	}
	return cfg.Normalized(), nil
}

// Normalized clamps nonsensical values back to defaults.
func (c Config) Normalized() Config {
	def := DefaultConfig()
	if c.MaxSources <= 0 {
		c.MaxSources = def.MaxSources
	}
	if c.MaxEvents <= 0 {
		c.MaxEvents = def.MaxEvents
	}
	if c.DriveTimeout <= 0 {
		c.DriveTimeout = def.DriveTimeout
	}
	return c
}
