// Package config loads the evaluation run configuration from YAML, applies
// defaults and validates it.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

type Config struct {
	Symbol string `yaml:"symbol" validate:"required"`

	Data struct {
		// One of: provider, duckdb, cache, synthetic.
		Source   string        `yaml:"source" default:"provider" validate:"oneof=provider duckdb cache synthetic"`
		From     time.Time     `yaml:"from" validate:"required"`
		To       time.Time     `yaml:"to" validate:"required,gtfield=From"`
		Provider struct {
			BaseURL string `yaml:"base_url" default:"https://finnhub.io/api/v1"`
			APIKey  string `yaml:"api_key"`
		} `yaml:"provider"`
		DuckDB struct {
			Path string `yaml:"path" default:"bars.duckdb"`
		} `yaml:"duckdb"`
		Cache struct {
			Path string `yaml:"path"`
		} `yaml:"cache"`
		Synthetic struct {
			Seed int64 `yaml:"seed" default:"1"`
		} `yaml:"synthetic"`
	} `yaml:"data"`

	Stream struct {
		Enabled      bool          `yaml:"enabled"`
		URL          string        `yaml:"url" default:"wss://ws.finnhub.io"`
		APIKey       string        `yaml:"api_key"`
		PingInterval time.Duration `yaml:"ping_interval" default:"30s"`
	} `yaml:"stream"`

	Evaluation struct {
		TrainRatio     float64   `yaml:"train_ratio" default:"0.8" validate:"gt=0,lt=1"`
		Levels         []float64 `yaml:"levels" default:"[80,95]" validate:"dive,gt=0,lt=100"`
		SeasonalPeriod int       `yaml:"seasonal_period" validate:"gte=0"`
		CV             struct {
			MinWindow int `yaml:"min_window" default:"30" validate:"gte=10"`
			Workers   int `yaml:"workers" validate:"gte=0"`
		} `yaml:"cv"`
	} `yaml:"evaluation"`

	Output struct {
		Dir string `yaml:"dir" default:"."`
	} `yaml:"output"`
}

// Load reads, defaults and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse builds a Config from raw YAML.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}
