package config_test

import (
	"testing"
	"time"

	"backoffice-api/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_TYPE", "memory")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("IS_PRODUCTION", "false")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.DBMemory, cfg.DBType)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "300-M", cfg.RateLimit)
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_TYPE", "Mongo")
	t.Setenv("PORT", "8081")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.DBMongo, cfg.DBType)
	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, 90*time.Minute, cfg.JWTTTL)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoad_Rejects(t *testing.T) {
	t.Setenv("DB_TYPE", "sqlite")
	_, err := config.Load()
	assert.Error(t, err)

	t.Setenv("DB_TYPE", "memory")
	t.Setenv("IS_PRODUCTION", "true")
	t.Setenv("JWT_SECRET", "")
	_, err = config.Load()
	assert.Error(t, err)
}
