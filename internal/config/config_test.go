package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/haulquote/internal/model"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "haulquote.sqlite3", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "admin", cfg.AdminUser)
	assert.Equal(t, "sonar-pro", cfg.EstimateModel)
	assert.Equal(t, 60*time.Second, cfg.EstimateTimeout)
	assert.Equal(t, model.DefaultPricing(), cfg.Pricing())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HAULQUOTE_ADDR", "127.0.0.1:9000")
	t.Setenv("HAULQUOTE_DEFAULT_EXCHANGE_RATE", "7.25")
	t.Setenv("HAULQUOTE_ESTIMATE_TIMEOUT", "5s")
	t.Setenv("PERPLEXITY_API_KEY", "pplx-unprefixed")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, 7.25, cfg.Pricing().ExchangeRate)
	assert.Equal(t, 5*time.Second, cfg.EstimateTimeout)
	assert.Equal(t, "pplx-unprefixed", cfg.PerplexityAPIKey)
}

func TestLoadDotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("HAULQUOTE_ADMIN_USER=boss\n"), 0o600))
	t.Setenv("HAULQUOTE_ADMIN_USER", "")
	os.Unsetenv("HAULQUOTE_ADMIN_USER")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "boss", cfg.AdminUser)
}

func TestLoadRejectsBadNumber(t *testing.T) {
	t.Setenv("HAULQUOTE_DEFAULT_HAUL_FEE_USD", "ten")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestValidatePricing(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.Pricing)
		wantErr bool
	}{
		{"defaults", func(*model.Pricing) {}, false},
		{"zero rate", func(p *model.Pricing) { p.ExchangeRate = 0 }, true},
		{"negative fee", func(p *model.Pricing) { p.FixedFeeUSD = -1 }, true},
		{"negative shipping", func(p *model.Pricing) { p.ShippingPerKgUSD = -0.5 }, true},
		{"insurance above one", func(p *model.Pricing) { p.InsuranceRate = 1.2 }, true},
		{"insurance of one", func(p *model.Pricing) { p.InsuranceRate = 1 }, false},
		{"negative haul fee", func(p *model.Pricing) { p.HaulFeeUSD = -10 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := model.DefaultPricing()
			tt.mutate(&p)
			err := ValidatePricing(p)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
