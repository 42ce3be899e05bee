// Package config loads server configuration from the environment,
// grounded on ThirdCoastInteractive-Rewind's internal/config: viper
// binds environment variables named by each field's mapstructure tag,
// then go-playground/validator checks the result.
package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds every tunable named in the server's external interface:
// the listen address, session lifecycle timers, and broadcast sizing.
type Config struct {
	ListenAddr string `mapstructure:"LISTEN_ADDR" validate:"required"`

	// SessionIdleTTLSeconds is how long a session may sit with no
	// activity before the sweeper kills it.
	SessionIdleTTLSeconds int `mapstructure:"SESSION_IDLE_TTL_SECONDS" validate:"gt=0"`

	// SessionMaxDurationSeconds is recorded as each new session's
	// Metadata.MaxDuration; it is not a session lifetime, and
	// SetProjectDuration does not check against it.
	SessionMaxDurationSeconds int `mapstructure:"SESSION_MAX_DURATION_SECONDS" validate:"gt=0"`

	// BroadcastCapacity is the per-subscriber channel buffer size used
	// for the Session's non-blocking fan-out.
	BroadcastCapacity int `mapstructure:"BROADCAST_CAPACITY" validate:"gt=0"`

	// SweeperIntervalSeconds is how often the manager scans for idle
	// sessions.
	SweeperIntervalSeconds int `mapstructure:"SWEEPER_INTERVAL_SECONDS" validate:"gt=0"`

	LogLevel string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info error"`
}

// SessionIdleTTL returns the idle TTL as a time.Duration.
func (c Config) SessionIdleTTL() time.Duration {
	return time.Duration(c.SessionIdleTTLSeconds) * time.Second
}

// SessionMaxDuration returns the per-project max duration as a time.Duration.
func (c Config) SessionMaxDuration() time.Duration {
	return time.Duration(c.SessionMaxDurationSeconds) * time.Second
}

// SweeperInterval returns the sweeper's scan interval as a time.Duration.
func (c Config) SweeperInterval() time.Duration {
	return time.Duration(c.SweeperIntervalSeconds) * time.Second
}

// bindEnv binds every mapstructure-tagged field to its environment
// variable by walking Config via reflection.
func bindEnv(c Config) {
	val := reflect.ValueOf(c)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		tag := typ.Field(i).Tag.Get("mapstructure")
		if tag != "" {
			viper.BindEnv(tag)
		}
	}
}

// Load reads configuration from the environment, applying defaults for
// anything unset, and validates the result.
func Load() (*Config, error) {
	bindEnv(Config{})
	viper.AutomaticEnv()

	viper.SetDefault("LISTEN_ADDR", "127.0.0.1:3030")
	viper.SetDefault("SESSION_IDLE_TTL_SECONDS", 86400)
	viper.SetDefault("SESSION_MAX_DURATION_SECONDS", 3600)
	viper.SetDefault("BROADCAST_CAPACITY", 100)
	viper.SetDefault("SWEEPER_INTERVAL_SECONDS", 3600)
	viper.SetDefault("LOG_LEVEL", "info")

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
