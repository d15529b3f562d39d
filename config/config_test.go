package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5, cfg.LockoutThreshold)
	assert.Equal(t, 15*time.Minute, cfg.LockoutDuration)
	assert.Equal(t, int64(100), cfg.TopUpMinimum)
	assert.Equal(t, time.Minute, cfg.SettlementInterval)
	assert.Equal(t, 2, cfg.PurgeHour)
	assert.Equal(t, 7*24*time.Hour, cfg.PurgeRetention)
	assert.False(t, cfg.SellerPayoutEnabled)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTRefreshTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("LOCKOUT_THRESHOLD", "3")
	t.Setenv("LOCKOUT_DURATION", "2m")
	t.Setenv("TOP_UP_MINIMUM", "250")
	t.Setenv("PURGE_RETENTION", "72h")
	t.Setenv("SELLER_PAYOUT_ENABLED", "true")
	t.Setenv("JWT_REFRESH_TTL", "48h")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.LockoutThreshold)
	assert.Equal(t, 2*time.Minute, cfg.LockoutDuration)
	assert.Equal(t, int64(250), cfg.TopUpMinimum)
	assert.Equal(t, 72*time.Hour, cfg.PurgeRetention)
	assert.True(t, cfg.SellerPayoutEnabled)
	assert.Equal(t, 48*time.Hour, cfg.JWTRefreshTTL)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("LOCKOUT_DURATION", "fifteen minutes")

	_, err := load()
	assert.ErrorContains(t, err, "LOCKOUT_DURATION")
}

func TestLoad_RequiresSecretsOutsideTest(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432")
	t.Setenv("JWT_SECRET", "")

	_, err := load()
	assert.ErrorContains(t, err, "JWT_SECRET is required")
}

func TestValidate_PurgeHour(t *testing.T) {
	cfg := NewTestConfig()
	cfg.DatabaseURL = "postgres://localhost:5432"
	cfg.PurgeHour = 24

	assert.ErrorContains(t, cfg.Validate(), "PURGE_HOUR")
}

func TestGet_ReturnsTestOverride(t *testing.T) {
	ResetConfig()
	t.Cleanup(ResetConfig)

	override := NewTestConfig()
	override.TopUpMinimum = 1
	SetTestConfig(override)

	assert.Same(t, override, Get())
}
