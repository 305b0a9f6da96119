// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/erazemk/haulquote/internal/model"
)

// Prefix is prepended to every variable name, e.g. HAULQUOTE_ADDR. The
// unprefixed name is consulted when the prefixed one is unset.
const Prefix = "HAULQUOTE"

// Config holds runtime configuration for the server.
type Config struct {
	DBPath    string `envconfig:"DB" default:"haulquote.sqlite3"`
	Addr      string `envconfig:"ADDR" default:":8080"`
	AdminUser string `envconfig:"ADMIN_USER" default:"admin"`
	LogPath   string `envconfig:"LOG"`

	PerplexityAPIKey string        `envconfig:"PERPLEXITY_API_KEY"`
	PerplexityURL    string        `envconfig:"PERPLEXITY_URL" default:"https://api.perplexity.ai"`
	EstimateModel    string        `envconfig:"ESTIMATE_MODEL" default:"sonar-pro"`
	EstimateTimeout  time.Duration `envconfig:"ESTIMATE_TIMEOUT" default:"60s"`

	DefaultExchangeRate     float64 `envconfig:"DEFAULT_EXCHANGE_RATE" default:"7.0"`
	DefaultFixedFeeUSD      float64 `envconfig:"DEFAULT_FIXED_FEE_USD" default:"0"`
	DefaultShippingPerKgUSD float64 `envconfig:"DEFAULT_SHIPPING_PER_KG_USD" default:"10"`
	DefaultInsuranceRate    float64 `envconfig:"DEFAULT_INSURANCE_RATE" default:"0.03"`
	DefaultHaulFeeUSD       float64 `envconfig:"DEFAULT_HAUL_FEE_USD" default:"10"`
}

// Load reads the given dotenv files (".env" when none are named) into the
// process environment, then fills a Config from it. Missing dotenv files are
// not an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("processing env: %w", err)
	}
	return &cfg, nil
}

// Pricing returns the pricing applied to new quotes.
func (c *Config) Pricing() model.Pricing {
	return model.Pricing{
		ExchangeRate:     c.DefaultExchangeRate,
		FixedFeeUSD:      c.DefaultFixedFeeUSD,
		ShippingPerKgUSD: c.DefaultShippingPerKgUSD,
		InsuranceRate:    c.DefaultInsuranceRate,
		HaulFeeUSD:       c.DefaultHaulFeeUSD,
	}
}

// Validate checks values that envconfig cannot.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("database path must be set")
	}
	if c.Addr == "" {
		return errors.New("listen address must be set")
	}
	if c.AdminUser == "" {
		return errors.New("admin username must be set")
	}
	if c.EstimateTimeout <= 0 {
		return errors.New("estimate timeout must be positive")
	}
	return ValidatePricing(c.Pricing())
}

// ValidatePricing checks the ranges the totals computation relies on.
func ValidatePricing(p model.Pricing) error {
	switch {
	case p.ExchangeRate <= 0:
		return errors.New("exchange rate must be positive")
	case p.FixedFeeUSD < 0:
		return errors.New("fixed fee must not be negative")
	case p.ShippingPerKgUSD < 0:
		return errors.New("shipping rate must not be negative")
	case p.InsuranceRate < 0 || p.InsuranceRate > 1:
		return errors.New("insurance rate must be between 0 and 1")
	case p.HaulFeeUSD < 0:
		return errors.New("haul fee must not be negative")
	}
	return nil
}
