// Package arima implements the ARIMA model family: conditional-sum-of-squares
// estimation with Yule-Walker initialization, AICc-driven order selection and
// psi-weight prediction intervals.
package arima

import (
	"errors"
	"fmt"
	"math"

	"github.com/mvracar/augur/pkg/models"
	"github.com/mvracar/augur/pkg/series"
	"github.com/mvracar/augur/pkg/stats"
)

var (
	ErrTooShort    = errors.New("series too short for the requested order")
	ErrDegenerate  = errors.New("differencing produced an empty series")
	ErrNoCandidate = errors.New("no candidate order converged")
)

// Order is the non-seasonal (p, d, q) specification.
type Order struct {
	P, D, Q int
}

// SeasonalOrder is the seasonal (P, D, Q) specification at the given period.
// A zero Period disables the seasonal part.
type SeasonalOrder struct {
	P, D, Q, Period int
}

// Model is a fitted ARIMA model. It is immutable after Fit and satisfies
// models.FittedModel.
type Model struct {
	order    Order
	seasonal SeasonalOrder

	arCoeffs  []float64
	maCoeffs  []float64
	sarCoeffs []float64
	smaCoeffs []float64
	intercept float64
	variance  float64

	criteria  stats.Criteria
	ljungBox  *stats.LjungBoxResult
	residuals []float64

	data     *series.TimeSeries
	diffData []float64
}

// Fit estimates an ARIMA model of a fixed order on the series.
func Fit(s *series.TimeSeries, order Order, seasonal SeasonalOrder) (*Model, error) {
	need := order.P + order.Q + order.D + models.MinObservations
	if seasonal.Period > 1 {
		need += (seasonal.P + seasonal.Q + seasonal.D) * seasonal.Period
	}
	if s.Len() < need {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrTooShort, s.Len(), need)
	}

	diffed := s
	for i := 0; i < order.D; i++ {
		diffed = diffed.Diff()
	}
	if seasonal.Period > 1 {
		for i := 0; i < seasonal.D; i++ {
			diffed = diffed.SeasonalDiff(seasonal.Period)
		}
	}
	if diffed.Len() == 0 {
		return nil, ErrDegenerate
	}

	m := &Model{
		order:    order,
		seasonal: seasonal,
		data:     s,
		diffData: diffed.Values(),
	}
	if err := m.estimate(); err != nil {
		return nil, err
	}

	nParams := order.P + order.Q + 1
	if seasonal.Period > 1 {
		nParams += seasonal.P + seasonal.Q
	}
	logLik := stats.GaussianLogLik(m.residuals, m.variance)
	m.criteria = stats.NewCriteria(logLik, len(m.residuals), nParams)
	m.ljungBox = stats.LjungBox(m.residuals, 10, order.P+order.Q)
	return m, nil
}

func (m *Model) Family() models.Family { return models.FamilyARIMA }

func (m *Model) Spec() string {
	if m.seasonal.Period > 1 {
		return fmt.Sprintf("ARIMA(%d,%d,%d)(%d,%d,%d)[%d]",
			m.order.P, m.order.D, m.order.Q,
			m.seasonal.P, m.seasonal.D, m.seasonal.Q, m.seasonal.Period)
	}
	return fmt.Sprintf("ARIMA(%d,%d,%d)", m.order.P, m.order.D, m.order.Q)
}

func (m *Model) Order() Order            { return m.order }
func (m *Model) Seasonal() SeasonalOrder { return m.seasonal }
func (m *Model) Criteria() stats.Criteria { return m.criteria }

// LjungBox returns the residual portmanteau test, nil when the residual
// sequence was too short to test.
func (m *Model) LjungBox() *stats.LjungBoxResult { return m.ljungBox }

func (m *Model) Residuals() []float64 {
	out := make([]float64, len(m.residuals))
	copy(out, m.residuals)
	return out
}

// predictOne computes the one-step prediction of the differenced series at
// index t given values y and residuals resid.
func (m *Model) predictOne(y, resid []float64, t int) float64 {
	pred := m.intercept
	for i := 0; i < m.order.P && t-i-1 >= 0; i++ {
		pred += m.arCoeffs[i] * (y[t-i-1] - m.intercept)
	}
	for i := 0; i < m.order.Q && t-i-1 >= 0; i++ {
		pred += m.maCoeffs[i] * resid[t-i-1]
	}
	if period := m.seasonal.Period; period > 1 {
		for i := 0; i < m.seasonal.P; i++ {
			if lag := t - (i+1)*period; lag >= 0 {
				pred += m.sarCoeffs[i] * (y[lag] - m.intercept)
			}
		}
		for i := 0; i < m.seasonal.Q; i++ {
			if lag := t - (i+1)*period; lag >= 0 {
				pred += m.smaCoeffs[i] * resid[lag]
			}
		}
	}
	return pred
}

func (m *Model) startIndex() int {
	start := m.order.P
	if m.order.Q > start {
		start = m.order.Q
	}
	if period := m.seasonal.Period; period > 1 {
		if s := m.seasonal.P * period; s > start {
			start = s
		}
		if s := m.seasonal.Q * period; s > start {
			start = s
		}
	}
	return start
}

// integrate undoes the non-seasonal and seasonal differencing, mapping
// forecasts of the differenced series back to the original scale. Each
// difference level anchors on the last values of the level beneath it, so
// the unwind runs innermost-first.
func (m *Model) integrate(forecasts []float64) []float64 {
	out := make([]float64, len(forecasts))
	copy(out, forecasts)

	levels := make([][]float64, m.order.D+1)
	levels[0] = m.data.Values()
	for i := 1; i <= m.order.D; i++ {
		levels[i] = diffValues(levels[i-1])
	}

	if period := m.seasonal.Period; period > 1 && m.seasonal.D > 0 {
		// Seasonal differencing was applied after the regular differencing
		// during fitting, so it unwinds before the regular levels.
		base := levels[m.order.D]
		sLevels := make([][]float64, m.seasonal.D)
		sLevels[0] = base
		for i := 1; i < m.seasonal.D; i++ {
			sLevels[i] = seasonalDiffValues(sLevels[i-1], period)
		}
		for i := m.seasonal.D - 1; i >= 0; i-- {
			tail := sLevels[i][len(sLevels[i])-period:]
			for j := range out {
				if j < period {
					out[j] += tail[j]
				} else {
					out[j] += out[j-period]
				}
			}
		}
	}

	for i := m.order.D - 1; i >= 0; i-- {
		last := levels[i][len(levels[i])-1]
		for j := range out {
			if j == 0 {
				out[j] += last
			} else {
				out[j] += out[j-1]
			}
		}
	}
	return out
}

func diffValues(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = values[i] - values[i-1]
	}
	return out
}

func seasonalDiffValues(values []float64, period int) []float64 {
	if len(values) <= period {
		return nil
	}
	out := make([]float64, len(values)-period)
	for i := period; i < len(values); i++ {
		out[i-period] = values[i] - values[i-period]
	}
	return out
}

// yuleWalker solves the Yule-Walker equations via Levinson-Durbin for initial
// AR estimates.
func yuleWalker(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order {
		return nil
	}

	phi := make([]float64, order)
	phi[0] = acf[1]
	if order == 1 {
		return phi
	}

	v := 1 - phi[0]*phi[0]
	for i := 1; i < order; i++ {
		lambda := acf[i+1]
		for j := 0; j < i; j++ {
			lambda -= phi[j] * acf[i-j]
		}
		lambda /= v

		next := make([]float64, i+1)
		for j := 0; j < i; j++ {
			next[j] = phi[j] - lambda*phi[i-1-j]
		}
		next[i] = lambda
		copy(phi, next)

		v *= 1 - lambda*lambda
		if v <= 0 {
			break
		}
	}
	return phi
}

func clampCoeff(v float64) float64 {
	return math.Max(-0.99, math.Min(0.99, v))
}
