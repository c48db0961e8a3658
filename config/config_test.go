package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/adaptive-learning/internal/infrastructure/external/learningapi"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "json", cfg.App.LogFormat)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.Adaptive.RequestTimeout)
	assert.Equal(t, 3, cfg.Adaptive.MaxAttempts)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 6379, cfg.Redis.Port)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"APP_ENV":                  "production",
		"DATABASE_URL":             "postgres://u:p@db:5432/hub",
		"ADAPTIVE_REQUEST_TIMEOUT": "2s",
		"ADAPTIVE_RATE_LIMIT":      "7.5",
		"REDIS_ENABLED":            "true",
		"REDIS_HOST":               "cache",
		"LOG_FORMAT":               "console",
	})
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Second, cfg.Adaptive.RequestTimeout)
	assert.Equal(t, 7.5, cfg.Adaptive.RequestsPerSecond)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache:6379", cfg.Redis.ClientSettings().Addr())
	assert.Equal(t, "console", cfg.App.LogFormat)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{"production without database", map[string]string{"APP_ENV": "production"}, "DATABASE_URL is required"},
		{"unknown environment", map[string]string{"APP_ENV": "qa"}, "Environment"},
		{"unknown log level", map[string]string{"LOG_LEVEL": "trace"}, "LogLevel"},
		{"zero attempts", map[string]string{"ADAPTIVE_MAX_ATTEMPTS": "0"}, "MaxAttempts"},
		{"min above max conns", map[string]string{"DB_MAX_CONNS": "2", "DB_MIN_CONNS": "5"}, "DB_MIN_CONNS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.vars)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFrom_BadDuration(t *testing.T) {
	_, err := LoadFrom(map[string]string{"ADAPTIVE_REQUEST_TIMEOUT": "soon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestConversions(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"DB_MAX_CONNS":              "20",
		"REDIS_LOCK_TTL":            "3s",
		"ADAPTIVE_CB_THRESHOLD":     "9",
		"ADAPTIVE_RETRY_BASE_DELAY": "50ms",
	})
	require.NoError(t, err)

	assert.Equal(t, int32(20), cfg.Database.PoolSettings().MaxConns)
	assert.Equal(t, 3*time.Second, cfg.Redis.LockSettings().TTL)

	var cc learningapi.ClientConfig
	cfg.Adaptive.Apply(&cc)
	assert.Equal(t, 9, cc.BreakerFailureThreshold)
	assert.Equal(t, 50*time.Millisecond, cc.RetryInitialDelay)
	assert.Equal(t, cfg.Adaptive.RequestTimeout, cc.Timeout)
}
