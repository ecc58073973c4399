// Package ets implements the exponential-smoothing (ETS) model family:
// simple, Holt and damped-trend smoothing with optional additive or
// multiplicative seasonality, selected by AICc over the type codes.
package ets

import (
	"errors"
	"fmt"
	"math"

	"github.com/mvracar/augur/pkg/models"
	"github.com/mvracar/augur/pkg/series"
	"github.com/mvracar/augur/pkg/stats"
)

var (
	ErrTooShort    = errors.New("series too short to initialize smoothing state")
	ErrNoCandidate = errors.New("no smoothing candidate converged")
)

// Trend is the trend type code.
type Trend int

const (
	TrendNone Trend = iota
	TrendAdditive
	TrendDamped
)

func (t Trend) String() string {
	switch t {
	case TrendAdditive:
		return "A"
	case TrendDamped:
		return "Ad"
	default:
		return "N"
	}
}

// Seasonal is the seasonal type code.
type Seasonal int

const (
	SeasonalNone Seasonal = iota
	SeasonalAdditive
	SeasonalMultiplicative
)

func (s Seasonal) String() string {
	switch s {
	case SeasonalAdditive:
		return "A"
	case SeasonalMultiplicative:
		return "M"
	default:
		return "N"
	}
}

// ErrorKind is the error type code. Point forecasts are identical for both;
// the residual definition, likelihood and interval scaling differ.
type ErrorKind int

const (
	ErrorAdditive ErrorKind = iota
	ErrorMultiplicative
)

func (e ErrorKind) String() string {
	if e == ErrorMultiplicative {
		return "M"
	}
	return "A"
}

// Config fully specifies one smoothing candidate.
type Config struct {
	Error    ErrorKind
	Trend    Trend
	Seasonal Seasonal
	Period   int

	Alpha float64 // level
	Beta  float64 // trend
	Gamma float64 // seasonal
	Phi   float64 // damping, 1 when undamped
}

func (c Config) spec() string {
	return fmt.Sprintf("ETS(%s,%s,%s)", c.Error, c.Trend, c.Seasonal)
}

func (c Config) nParams() int {
	// Smoothing parameters plus initial states, after Hyndman's counting.
	k := 2 // alpha + initial level
	if c.Trend != TrendNone {
		k += 2 // beta + initial trend
	}
	if c.Trend == TrendDamped {
		k++
	}
	if c.Seasonal != SeasonalNone {
		k += 1 + c.Period // gamma + initial indices
	}
	return k
}

// Model is a fitted exponential-smoothing model. Immutable after fit; it
// satisfies models.FittedModel.
type Model struct {
	cfg Config

	level    float64
	trend    float64
	seasonal []float64 // rolling window of the last Period indices

	residuals []float64
	variance  float64
	criteria  stats.Criteria
	ljungBox  *stats.LjungBoxResult
	n         int

	// Deseasonalize-then-fit policy state: when set, forecasts are
	// recomposed with this pattern.
	adjustPattern []float64
	adjustKind    stats.DecompositionKind
	adjustOffset  int
}

func (m *Model) Family() models.Family { return models.FamilyETS }

func (m *Model) Spec() string {
	if m.adjustPattern != nil {
		return m.cfg.spec() + "+decomp"
	}
	return m.cfg.spec()
}

func (m *Model) Config() Config                  { return m.cfg }
func (m *Model) Criteria() stats.Criteria        { return m.criteria }
func (m *Model) LjungBox() *stats.LjungBoxResult { return m.ljungBox }

func (m *Model) Residuals() []float64 {
	out := make([]float64, len(m.residuals))
	copy(out, m.residuals)
	return out
}

// Fit estimates a single fixed smoothing configuration. Use Fitter for the
// AICc search over type codes and parameters.
func Fit(s *series.TimeSeries, cfg Config) (*Model, error) {
	if s == nil {
		return nil, models.ErrInvalidInput
	}
	return fit(s.Values(), cfg)
}

// fit runs the smoothing recursion for a fixed configuration and computes
// residual variance and information criteria.
func fit(values []float64, cfg Config) (*Model, error) {
	n := len(values)
	minLen := models.MinObservations
	if cfg.Seasonal != SeasonalNone {
		if cfg.Period < 2 {
			return nil, fmt.Errorf("%w: seasonal config without period", ErrNoCandidate)
		}
		if need := 2 * cfg.Period; need > minLen {
			minLen = need
		}
	}
	if n < minLen {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrTooShort, n, minLen)
	}
	if cfg.Seasonal == SeasonalMultiplicative || cfg.Error == ErrorMultiplicative {
		for _, v := range values {
			if v <= 0 {
				return nil, fmt.Errorf("%w: multiplicative components need positive data", ErrNoCandidate)
			}
		}
	}

	m := &Model{cfg: cfg, n: n}
	m.initState(values)

	start := 1
	if cfg.Seasonal != SeasonalNone {
		start = cfg.Period
	}

	residuals := make([]float64, 0, n-start)
	sumLogPred := 0.0
	for t := start; t < n; t++ {
		pred := m.oneStep()
		m.update(values[t])

		switch {
		case cfg.Error == ErrorMultiplicative && pred != 0:
			residuals = append(residuals, (values[t]-pred)/pred)
			sumLogPred += math.Log(math.Abs(pred))
		default:
			residuals = append(residuals, values[t]-pred)
		}
	}
	m.residuals = residuals

	sse := 0.0
	for _, r := range residuals {
		sse += r * r
	}
	if len(residuals) > 1 {
		m.variance = sse / float64(len(residuals)-1)
	}
	if m.variance <= 0 || math.IsNaN(m.variance) || math.IsInf(m.variance, 0) {
		return nil, fmt.Errorf("%w: degenerate residual variance", ErrNoCandidate)
	}

	// Relative residuals live on a different scale; the Jacobian term keeps
	// the multiplicative-error likelihood comparable with additive ones.
	logLik := stats.GaussianLogLik(residuals, m.variance) - sumLogPred
	m.criteria = stats.NewCriteria(logLik, len(residuals), cfg.nParams())
	m.ljungBox = stats.LjungBox(residuals, 10, 0)
	return m, nil
}

// initState seeds level, trend and seasonal indices from the head of the
// series in the classical Holt-Winters manner.
func (m *Model) initState(values []float64) {
	cfg := m.cfg

	if cfg.Seasonal == SeasonalNone {
		m.level = values[0]
		if cfg.Trend != TrendNone && len(values) > 1 {
			m.trend = values[1] - values[0]
		}
		return
	}

	period := cfg.Period
	firstCycle := 0.0
	for i := 0; i < period; i++ {
		firstCycle += values[i]
	}
	firstCycle /= float64(period)
	m.level = firstCycle

	if cfg.Trend != TrendNone && len(values) >= 2*period {
		secondCycle := 0.0
		for i := period; i < 2*period; i++ {
			secondCycle += values[i]
		}
		secondCycle /= float64(period)
		m.trend = (secondCycle - firstCycle) / float64(period)
	}

	m.seasonal = make([]float64, period)
	for i := 0; i < period; i++ {
		if cfg.Seasonal == SeasonalMultiplicative {
			if firstCycle != 0 {
				m.seasonal[i] = values[i] / firstCycle
			} else {
				m.seasonal[i] = 1
			}
		} else {
			m.seasonal[i] = values[i] - firstCycle
		}
	}
}

// oneStep is the one-step-ahead forecast from the current state.
func (m *Model) oneStep() float64 {
	base := m.level + m.phi()*m.trend
	switch m.cfg.Seasonal {
	case SeasonalAdditive:
		return base + m.seasonal[0]
	case SeasonalMultiplicative:
		return base * m.seasonal[0]
	default:
		return base
	}
}

// update advances the smoothing state with one observation.
func (m *Model) update(y float64) {
	cfg := m.cfg
	phi := m.phi()
	prevLevel := m.level

	deseason := y
	switch cfg.Seasonal {
	case SeasonalAdditive:
		deseason = y - m.seasonal[0]
	case SeasonalMultiplicative:
		if m.seasonal[0] != 0 {
			deseason = y / m.seasonal[0]
		}
	}

	m.level = cfg.Alpha*deseason + (1-cfg.Alpha)*(prevLevel+phi*m.trend)
	if cfg.Trend != TrendNone {
		m.trend = cfg.Beta*(m.level-prevLevel) + (1-cfg.Beta)*phi*m.trend
	}

	if cfg.Seasonal != SeasonalNone {
		var idx float64
		if cfg.Seasonal == SeasonalMultiplicative {
			idx = 1
			if m.level != 0 {
				idx = y / m.level
			}
		} else {
			idx = y - m.level
		}
		next := cfg.Gamma*idx + (1-cfg.Gamma)*m.seasonal[0]
		m.seasonal = append(m.seasonal[1:], next)
	}
}

func (m *Model) phi() float64 {
	switch m.cfg.Trend {
	case TrendDamped:
		return m.cfg.Phi
	case TrendAdditive:
		return 1
	default:
		return 0
	}
}
