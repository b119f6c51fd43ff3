package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("JWT_SECRET", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 168*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, []string{"http://localhost:5173", "http://127.0.0.1:5173"}, cfg.CORSOrigins)
	assert.Empty(t, cfg.RedisAddr)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "rotu")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("DB_NAME", "shop")
	t.Setenv("JWT_SECRET", "abc")
	t.Setenv("CORS_ORIGINS", "https://app.example.com")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "postgres://rotu:s3cret@db:5432/shop?sslmode=disable", cfg.DSN())
	assert.Equal(t, "abc", cfg.JWTSecret)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORSOrigins)
}

func TestReleaseRequiresSecret(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("JWT_SECRET", "")

	_, err := FromEnv()
	assert.Error(t, err)
}
