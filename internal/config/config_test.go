package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, "127.0.0.1:3030", cfg.ListenAddr)
	require.Equal(t, 24*time.Hour, cfg.SessionIdleTTL())
	require.Equal(t, time.Hour, cfg.SessionMaxDuration())
	require.Equal(t, 100, cfg.BroadcastCapacity)
	require.Equal(t, time.Hour, cfg.SweeperInterval())
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("LISTEN_ADDR", "0.0.0.0:9000")
	t.Setenv("SESSION_IDLE_TTL_SECONDS", "60")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9000", cfg.ListenAddr)
	require.Equal(t, 60*time.Second, cfg.SessionIdleTTL())
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidLogLevelFailsValidation(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("LOG_LEVEL", "verbose")

	cfg, err := Load()
	require.Error(t, err)
	require.Nil(t, cfg)
}
