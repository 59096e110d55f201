package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 50, cfg.MaxUploadMB)
	assert.Equal(t, "0 0 1 * *", cfg.UsageResetSchedule)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.StripeEnabled())
	assert.Equal(t, "secret", AppConfig.JWTSecret)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "8080")
	t.Setenv("APP_ENV", "Production")
	t.Setenv("MAX_UPLOAD_MB", "10")
	t.Setenv("COST_RATIO_BASELINE", "0.5")
	t.Setenv("STRIPE_PRICE_PRO", "price_pro")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 10, cfg.MaxUploadMB)
	assert.Equal(t, 0.5, cfg.CostRatioBaseline)

	price, ok := cfg.PriceFor("pro")
	assert.True(t, ok)
	assert.Equal(t, "price_pro", price)
	_, ok = cfg.PriceFor("pro_plus")
	assert.False(t, ok)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestValidateCostBaseline(t *testing.T) {
	cfg := Config{JWTSecret: "s", MaxUploadMB: 1, CostRatioBaseline: 1.2}
	assert.Error(t, cfg.Validate())
}
