package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "catalog", cfg.CatalogTableName)
	assert.Equal(t, "150", cfg.DeliveryFee.String())
	assert.Equal(t, "0.08", cfg.TaxRate.String())
}

func TestLoadRejectsBadPricing(t *testing.T) {
	t.Setenv("DELIVERY_FEE", "not-a-number")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNegativeRates(t *testing.T) {
	t.Setenv("TAX_RATE", "-0.08")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DELIVERY_FEE", "200.50")
	t.Setenv("TAX_RATE", "0.16")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "200.5", cfg.DeliveryFee.String())
	assert.Equal(t, "0.16", cfg.TaxRate.String())
}
