package config

import (
	"testing"
)

const minimalYAML = `
symbol: AAPL
data:
  from: 2023-01-01T00:00:00Z
  to: 2024-01-01T00:00:00Z
`

func TestParse_Defaults(t *testing.T) {
	c, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if c.Data.Source != "provider" {
		t.Errorf("source = %q, want provider", c.Data.Source)
	}
	if c.Evaluation.TrainRatio != 0.8 {
		t.Errorf("train ratio = %v, want 0.8", c.Evaluation.TrainRatio)
	}
	if len(c.Evaluation.Levels) != 2 || c.Evaluation.Levels[0] != 80 || c.Evaluation.Levels[1] != 95 {
		t.Errorf("levels = %v, want [80 95]", c.Evaluation.Levels)
	}
	if c.Evaluation.CV.MinWindow != 30 {
		t.Errorf("cv min window = %d, want 30", c.Evaluation.CV.MinWindow)
	}
	if c.Output.Dir != "." {
		t.Errorf("output dir = %q, want .", c.Output.Dir)
	}
}

func TestParse_Overrides(t *testing.T) {
	c, err := Parse([]byte(`
symbol: MSFT
data:
  source: duckdb
  from: 2023-01-01T00:00:00Z
  to: 2024-01-01T00:00:00Z
  duckdb:
    path: /tmp/bars.duckdb
evaluation:
  train_ratio: 0.7
  seasonal_period: 5
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Data.Source != "duckdb" || c.Data.DuckDB.Path != "/tmp/bars.duckdb" {
		t.Errorf("duckdb source not honored: %+v", c.Data)
	}
	if c.Evaluation.TrainRatio != 0.7 {
		t.Errorf("train ratio = %v, want 0.7", c.Evaluation.TrainRatio)
	}
	if c.Evaluation.SeasonalPeriod != 5 {
		t.Errorf("seasonal period = %d, want 5", c.Evaluation.SeasonalPeriod)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing symbol", `
data:
  from: 2023-01-01T00:00:00Z
  to: 2024-01-01T00:00:00Z
`},
		{"range inverted", `
symbol: AAPL
data:
  from: 2024-01-01T00:00:00Z
  to: 2023-01-01T00:00:00Z
`},
		{"bad ratio", `
symbol: AAPL
data:
  from: 2023-01-01T00:00:00Z
  to: 2024-01-01T00:00:00Z
evaluation:
  train_ratio: 1.5
`},
		{"bad source", `
symbol: AAPL
data:
  source: kafka
  from: 2023-01-01T00:00:00Z
  to: 2024-01-01T00:00:00Z
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
