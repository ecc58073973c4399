package ets

import (
	"context"
	"fmt"
	"math"

	"github.com/mvracar/augur/pkg/models"
	"github.com/mvracar/augur/pkg/series"
	"github.com/mvracar/augur/pkg/stats"
)

// maxDirectPeriod bounds the seasonal period that is modeled inside the
// smoothing state. Longer periods are removed by classical decomposition
// before fitting and recomposed on the forecasts.
const maxDirectPeriod = 24

var (
	alphaGrid = []float64{0.1, 0.3, 0.5, 0.7, 0.9}
	betaGrid  = []float64{0.05, 0.1, 0.3}
	gammaGrid = []float64{0.05, 0.1, 0.3}
	phiGrid   = []float64{0.8, 0.9, 0.98}
)

// Fitter searches the exponential-smoothing type codes and smoothing
// parameters for the configuration minimizing AICc. The zero option set
// considers additive and multiplicative errors, no/additive/damped trend
// and no seasonality; WithPeriod adds the seasonal candidates.
type Fitter struct {
	period     int
	allowMult  bool
	dampedOnly bool
}

type FitterOption func(*Fitter)

// WithPeriod enables seasonal candidates at the given period.
func WithPeriod(period int) FitterOption {
	return func(f *Fitter) {
		if period > 1 {
			f.period = period
		}
	}
}

// WithAdditiveOnly restricts the search to additive error and seasonality.
func WithAdditiveOnly() FitterOption {
	return func(f *Fitter) { f.allowMult = false }
}

// WithDampedTrend restricts trended candidates to the damped variant.
func WithDampedTrend() FitterOption {
	return func(f *Fitter) { f.dampedOnly = true }
}

func NewFitter(opts ...FitterOption) *Fitter {
	f := &Fitter{allowMult: true}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fitter) Family() models.Family { return models.FamilyETS }

// Fit selects the best smoothing model for the series.
func (f *Fitter) Fit(ctx context.Context, s *series.TimeSeries) (models.FittedModel, error) {
	if s == nil || s.Len() < models.MinObservations {
		n := 0
		if s != nil {
			n = s.Len()
		}
		return nil, models.NewFitError(models.FamilyETS, s,
			&lengthError{have: n, need: models.MinObservations})
	}

	values := s.Values()
	period := f.period
	if period > 1 && s.Len() < 2*period {
		period = 0
	}

	// Periods too long for the smoothing state are stripped up front.
	var pattern []float64
	var patternKind stats.DecompositionKind
	if period > maxDirectPeriod {
		kind := stats.Additive
		if allPositive(values) {
			kind = stats.Multiplicative
		}
		dec := stats.Decompose(s, period, kind)
		if dec != nil {
			pattern = dec.Pattern
			patternKind = kind
			values = deseasonalize(values, pattern, kind)
		}
		period = 0
	}

	var best *Model
	bestAICc := math.Inf(1)
	for _, cfg := range f.candidates(values, period) {
		if err := ctx.Err(); err != nil {
			return nil, models.NewFitError(models.FamilyETS, s, err)
		}
		m, err := fit(values, cfg)
		if err != nil {
			continue
		}
		if aicc := m.criteria.AICc; aicc < bestAICc {
			bestAICc = aicc
			best = m
		}
	}
	if best == nil {
		return nil, models.NewFitError(models.FamilyETS, s, ErrNoCandidate)
	}

	if pattern != nil {
		best.adjustPattern = pattern
		best.adjustKind = patternKind
		best.adjustOffset = s.Len() % len(pattern)
	}
	return best, nil
}

// candidates enumerates every structure and smoothing-parameter combination
// in scope for the data.
func (f *Fitter) candidates(values []float64, period int) []Config {
	positive := allPositive(values)

	errorKinds := []ErrorKind{ErrorAdditive}
	if f.allowMult && positive {
		errorKinds = append(errorKinds, ErrorMultiplicative)
	}

	trends := []Trend{TrendNone, TrendAdditive, TrendDamped}
	if f.dampedOnly {
		trends = []Trend{TrendNone, TrendDamped}
	}

	seasonals := []Seasonal{SeasonalNone}
	if period > 1 {
		seasonals = append(seasonals, SeasonalAdditive)
		if f.allowMult && positive {
			seasonals = append(seasonals, SeasonalMultiplicative)
		}
	}

	var out []Config
	for _, ek := range errorKinds {
		for _, tr := range trends {
			for _, se := range seasonals {
				for _, alpha := range alphaGrid {
					betas := []float64{0}
					if tr != TrendNone {
						betas = betaGrid
					}
					gammas := []float64{0}
					if se != SeasonalNone {
						gammas = gammaGrid
					}
					phis := []float64{1}
					if tr == TrendDamped {
						phis = phiGrid
					}
					for _, beta := range betas {
						for _, gamma := range gammas {
							for _, phi := range phis {
								p := 0
								if se != SeasonalNone {
									p = period
								}
								out = append(out, Config{
									Error: ek, Trend: tr, Seasonal: se, Period: p,
									Alpha: alpha, Beta: beta, Gamma: gamma, Phi: phi,
								})
							}
						}
					}
				}
			}
		}
	}
	return out
}

func allPositive(values []float64) bool {
	for _, v := range values {
		if v <= 0 {
			return false
		}
	}
	return true
}

func deseasonalize(values, pattern []float64, kind stats.DecompositionKind) []float64 {
	out := make([]float64, len(values))
	period := len(pattern)
	for i, v := range values {
		s := pattern[i%period]
		if kind == stats.Multiplicative {
			if s != 0 {
				out[i] = v / s
			} else {
				out[i] = v
			}
		} else {
			out[i] = v - s
		}
	}
	return out
}

type lengthError struct {
	have, need int
}

func (e *lengthError) Error() string {
	return fmt.Sprintf("series too short: have %d, need %d", e.have, e.need)
}

func (e *lengthError) Is(target error) bool { return target == ErrTooShort }
