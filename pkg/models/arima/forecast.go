package arima

import (
	"fmt"
	"math"

	"github.com/mvracar/augur/pkg/models"
)

// Forecast produces point forecasts with prediction intervals for the given
// horizon. Intervals derive from the psi-weight representation of the full
// ARIMA process, so they widen with both horizon and confidence level.
func (m *Model) Forecast(horizon int, levels []float64) (*models.Forecast, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("forecast: horizon %d < 1: %w", horizon, models.ErrInvalidInput)
	}

	y := m.diffData
	n := len(y)

	extY := make([]float64, n+horizon)
	copy(extY, y)
	extResid := make([]float64, n+horizon)
	copy(extResid, m.residuals)

	for h := 0; h < horizon; h++ {
		t := n + h
		extY[t] = m.predictOne(extY, extResid, t)
		extResid[t] = 0 // expected future shock
	}

	points := m.integrate(extY[n:])

	psi := m.psiWeights(horizon)
	stderr := make([]float64, horizon)
	cum := 0.0
	for h := 0; h < horizon; h++ {
		cum += psi[h] * psi[h]
		stderr[h] = math.Sqrt(m.variance * cum)
	}

	return models.NewForecast(models.FamilyARIMA, m.Spec(), points, stderr, levels)
}

// psiWeights expands the ARIMA process into its MA(inf) representation. The
// AR polynomial is first convolved with the differencing operators so the
// weights describe the un-differenced process.
func (m *Model) psiWeights(h int) []float64 {
	// phi* = phi(B) * (1-B)^d * (1-B^m)^D
	arPoly := make([]float64, len(m.arCoeffs)+1)
	arPoly[0] = 1
	for i, c := range m.arCoeffs {
		arPoly[i+1] = -c
	}

	phiStar := arPoly
	for i := 0; i < m.order.D; i++ {
		phiStar = convolve(phiStar, []float64{1, -1})
	}
	if period := m.seasonal.Period; period > 1 {
		if len(m.sarCoeffs) > 0 {
			sar := make([]float64, len(m.sarCoeffs)*period+1)
			sar[0] = 1
			for i, c := range m.sarCoeffs {
				sar[(i+1)*period] = -c
			}
			phiStar = convolve(phiStar, sar)
		}
		for i := 0; i < m.seasonal.D; i++ {
			sd := make([]float64, period+1)
			sd[0] = 1
			sd[period] = -1
			phiStar = convolve(phiStar, sd)
		}
	}

	// theta(B), including seasonal MA terms at period lags.
	thetaLen := len(m.maCoeffs) + 1
	if period := m.seasonal.Period; period > 1 && len(m.smaCoeffs) > 0 {
		if l := len(m.smaCoeffs)*period + 1; l > thetaLen {
			thetaLen = l
		}
	}
	theta := make([]float64, thetaLen)
	theta[0] = 1
	for i, c := range m.maCoeffs {
		theta[i+1] += c
	}
	if period := m.seasonal.Period; period > 1 {
		for i, c := range m.smaCoeffs {
			theta[(i+1)*period] += c
		}
	}

	// psi_j = theta_j - sum_{i>=1} phiStar_i * psi_{j-i}
	psi := make([]float64, h)
	for j := 0; j < h; j++ {
		v := 0.0
		if j < len(theta) {
			v = theta[j]
		}
		for i := 1; i < len(phiStar) && i <= j; i++ {
			v -= phiStar[i] * psi[j-i]
		}
		psi[j] = v
	}
	return psi
}

func convolve(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, av := range a {
		for j, bv := range b {
			out[i+j] += av * bv
		}
	}
	return out
}
