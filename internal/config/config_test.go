package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_SECRET", "unit-test-session-secret-value")
	t.Setenv("DB_PASSWORD", "postgres")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, 5, cfg.Auth.MaxFailedAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Auth.LockoutDuration)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.SessionTokenExpiry)
	assert.Equal(t, "memory", cfg.Cart.Backend)
	assert.Equal(t, 7*24*time.Hour, cfg.Cart.CookieTTL)
	assert.NotEmpty(t, cfg.Server.AllowedOrigins, "development allows localhost origins")
}

func TestLoad_MissingSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("DB_PASSWORD", "postgres")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_MissingDBPassword(t *testing.T) {
	t.Setenv("SESSION_SECRET", "unit-test-session-secret-value")
	t.Setenv("DB_PASSWORD", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidCartBackend(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CART_BACKEND", "memcached")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RedisBackend(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CART_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Cart.Backend)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_FAILED_LOGIN_ATTEMPTS", "3")
	t.Setenv("ACCOUNT_LOCKOUT_DURATION", "15m")
	t.Setenv("CART_IDLE_TTL", "48h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Auth.MaxFailedAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Auth.LockoutDuration)
	assert.Equal(t, 48*time.Hour, cfg.Cart.IdleTTL)
}

func TestValidateSessionSecret(t *testing.T) {
	// Development minimum is 16 characters
	assert.Error(t, validateSessionSecret("short", "development"))
	assert.NoError(t, validateSessionSecret("sixteen-chars-ok", "development"))

	// Production requires 32
	assert.Error(t, validateSessionSecret("sixteen-chars-ok", "production"))
	assert.NoError(t, validateSessionSecret("this-secret-is-long-enough-for-prod", "production"))
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "secret",
		Name:     "storefront",
		SSLMode:  "disable",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "dbname=storefront")
	assert.Contains(t, dsn, "sslmode=disable")
}
