package strategy

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	PrimeRateSeries = "bank_prime_loan_rate"
	ProfitSeries    = "corporate_profit_after_tax"
)

// Config is fixed for the lifetime of a Decider.
type Config struct {
	Instrument           string  `yaml:"instrument" default:"SPY" validate:"required"`
	Interval             string  `yaml:"interval" default:"1day" validate:"required,oneof=1min 5min 15min 1hour 4hour 1day 1week"`
	PrimeRateKey         string  `yaml:"prime_rate_key" default:"bank_prime_loan_rate" validate:"required"`
	ProfitKey            string  `yaml:"profit_key" default:"corporate_profit_after_tax" validate:"required,nefield=PrimeRateKey"`
	DefaultAllocation    float64 `yaml:"default_allocation" default:"0.5" validate:"gte=0,lte=1"`
	BullAllocation       float64 `yaml:"bull_allocation" default:"0.8" validate:"gte=0,lte=1"`
	WeakProfitAllocation float64 `yaml:"weak_profit_allocation" default:"0.3" validate:"gte=0,lte=1"`
}

var validate = validator.New()

func DefaultConfig() Config {
	var cfg Config
	// Only fails for non-pointer arguments.
	_ = defaults.Set(&cfg)
	return cfg
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("strategy config: %w", err)
	}
	return nil
}

// LoadConfig reads YAML overrides on top of DefaultConfig. An empty path
// yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read strategy config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse strategy config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
