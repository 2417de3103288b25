package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("EXECUTOR_MAX_ROWS", "")
	t.Setenv("CACHE_BACKEND", "Redis")

	cfg := Load()

	assert.Equal(t, 1000, cfg.Executor.MaxRows)
	assert.Equal(t, 100, cfg.Executor.BatchSize)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.False(t, cfg.IsProduction() && cfg.App.Environment != "production")
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"go duration", "45s", 45 * time.Second},
		{"plain seconds", "10", 10 * time.Second},
		{"minutes", "2m", 2 * time.Minute},
		{"garbage", "soon", 30 * time.Second},
		{"empty", "", 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_TIMEOUT", tt.value)
			assert.Equal(t, tt.want, getEnvAsDuration("TEST_TIMEOUT", 30*time.Second))
		})
	}
}

func TestGetEnvAsIntAndBool(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "x")
	t.Setenv("TEST_BOOL", "true")

	assert.Equal(t, 42, getEnvAsInt("TEST_INT", 1))
	assert.Equal(t, 1, getEnvAsInt("TEST_BAD_INT", 1))
	assert.True(t, getEnvAsBool("TEST_BOOL", false))
	assert.True(t, getEnvAsBool("TEST_MISSING_BOOL", true))
}
