package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5, cfg.RateLimit.Rules.Create.Limit)
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.Rules.Create.Window)
	assert.Equal(t, 10, cfg.RateLimit.Rules.Delete.Limit)
	assert.Equal(t, 3, cfg.RateLimit.BreakerThreshold)
	assert.Equal(t, 8*time.Hour, cfg.Auth.TokenTTL)
	assert.Empty(t, cfg.Auth.AdminToken)
	assert.Equal(t, 2*time.Second, cfg.Audit.Timeout)
	assert.Equal(t, []string{"admin"}, cfg.Auth.AdminRoles)
	assert.NotEmpty(t, cfg.Auth.JWTSigningKey, "development gets a fallback key")
	assert.False(t, cfg.UsesPostgres())
	assert.False(t, cfg.UsesRedis())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MEDPLANT_SERVER_ADDR", ":9090")
	t.Setenv("MEDPLANT_RATELIMIT_RULES_CREATE_LIMIT", "2")
	t.Setenv("MEDPLANT_RATELIMIT_RULES_CREATE_WINDOW", "1m")
	t.Setenv("MEDPLANT_DATABASE_URL", "postgres://medplant@localhost/medplant")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 2, cfg.RateLimit.Rules.Create.Limit)
	assert.Equal(t, time.Minute, cfg.RateLimit.Rules.Create.Window)
	assert.True(t, cfg.UsesPostgres())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "medplant.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\naudit:\n  timeout: 500ms\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 500*time.Millisecond, cfg.Audit.Timeout)
}

func TestProductionRequiresSigningKey(t *testing.T) {
	t.Setenv("MEDPLANT_ENV", "production")
	_, err := Load("")
	assert.Error(t, err)
}
