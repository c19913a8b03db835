package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, "gochannel", cfg.Events.Driver)
	assert.Equal(t, "235689qW#", cfg.DefaultPassword)
	assert.False(t, cfg.Casdoor.Enabled())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("MSCHOOL_PORT", "9090")
	t.Setenv("MSCHOOL_LOG_LEVEL", "debug")
	t.Setenv("MSCHOOL_JWT_ACCESS_TTL", "15m")
	t.Setenv("MSCHOOL_EVENTS_DRIVER", "kafka")
	t.Setenv("MSCHOOL_EVENTS_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("MSCHOOL_CASDOOR_ENDPOINT", "https://sso.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Events.KafkaBrokers)
	assert.True(t, cfg.Casdoor.Enabled())
}

func TestFromViper_Rejects(t *testing.T) {
	tests := []struct {
		name string
		set  map[string]interface{}
	}{
		{name: "bad log level", set: map[string]interface{}{"log_level": "loud"}},
		{name: "default secret in production", set: map[string]interface{}{"environment": "production"}},
		{name: "non-positive ttl", set: map[string]interface{}{"jwt.access_ttl": "0s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			setDefaults(v)
			for key, value := range tt.set {
				v.Set(key, value)
			}
			_, err := fromViper(v)
			assert.Error(t, err)
		})
	}
}
