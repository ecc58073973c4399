package ets

import (
	"fmt"
	"math"

	"github.com/mvracar/augur/pkg/models"
	"github.com/mvracar/augur/pkg/stats"
)

// Forecast extrapolates the final smoothing state horizon steps ahead and
// attaches symmetric Gaussian prediction intervals at the requested levels.
func (m *Model) Forecast(horizon int, levels []float64) (*models.Forecast, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("ets: horizon %d: %w", horizon, models.ErrInvalidInput)
	}

	points := make([]float64, horizon)
	stderr := make([]float64, horizon)
	for h := 1; h <= horizon; h++ {
		points[h-1] = m.pointAt(h)
		stderr[h-1] = m.stderrAt(h, points[h-1])
	}

	if m.adjustPattern != nil {
		period := len(m.adjustPattern)
		for h := 1; h <= horizon; h++ {
			s := m.adjustPattern[(m.adjustOffset+h-1)%period]
			if m.adjustKind == stats.Multiplicative {
				points[h-1] *= s
				stderr[h-1] *= math.Abs(s)
			} else {
				points[h-1] += s
			}
		}
	}

	return models.NewForecast(models.FamilyETS, m.Spec(), points, stderr, levels)
}

// pointAt is the h-step-ahead point forecast from the final state.
func (m *Model) pointAt(h int) float64 {
	base := m.level + m.trendSum(h)*m.trend
	switch m.cfg.Seasonal {
	case SeasonalAdditive:
		return base + m.seasonal[(h-1)%m.cfg.Period]
	case SeasonalMultiplicative:
		return base * m.seasonal[(h-1)%m.cfg.Period]
	default:
		return base
	}
}

// trendSum is the damped trend multiplier phi + phi^2 + ... + phi^h, which
// reduces to h for an undamped trend and 0 without one.
func (m *Model) trendSum(h int) float64 {
	switch m.cfg.Trend {
	case TrendAdditive:
		return float64(h)
	case TrendDamped:
		phi := m.cfg.Phi
		sum := 0.0
		pow := 1.0
		for j := 0; j < h; j++ {
			pow *= phi
			sum += pow
		}
		return sum
	default:
		return 0
	}
}

// stderrAt is the h-step forecast standard error. Additive models use the
// exact class 1 state-space variance; multiplicative components scale the
// same expression, which is the usual large-sample approximation.
func (m *Model) stderrAt(h int, point float64) float64 {
	cfg := m.cfg
	sigma2 := m.variance

	sum := 1.0
	for j := 1; j < h; j++ {
		c := cfg.Alpha
		switch cfg.Trend {
		case TrendAdditive:
			c += cfg.Beta * float64(j)
		case TrendDamped:
			if cfg.Phi != 1 {
				c += cfg.Beta * cfg.Phi * (1 - math.Pow(cfg.Phi, float64(j))) / (1 - cfg.Phi)
			} else {
				c += cfg.Beta * float64(j)
			}
		}
		if cfg.Seasonal != SeasonalNone && j%cfg.Period == 0 {
			c += cfg.Gamma
		}
		sum += c * c
	}

	se := math.Sqrt(sigma2 * sum)
	if cfg.Error == ErrorMultiplicative {
		se *= math.Abs(point)
	} else if cfg.Seasonal == SeasonalMultiplicative {
		se *= math.Abs(m.seasonal[(h-1)%cfg.Period])
	}
	return se
}
