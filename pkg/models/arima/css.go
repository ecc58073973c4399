package arima

import (
	"math"

	"github.com/mvracar/augur/pkg/stats"
)

const (
	cssMaxIter      = 100
	cssTolerance    = 1e-6
	cssLearningRate = 0.01
)

// estimate fits the model parameters on the differenced series by
// conditional sum of squares: Yule-Walker starting values for the AR part,
// small starting values for the MA part, then gradient refinement.
func (m *Model) estimate() error {
	y := m.diffData
	n := len(y)
	p, q := m.order.P, m.order.Q
	sp, sq := 0, 0
	if m.seasonal.Period > 1 {
		sp, sq = m.seasonal.P, m.seasonal.Q
	}

	mean := 0.0
	for _, v := range y {
		mean += v
	}
	m.intercept = mean / float64(n)

	if p == 0 && q == 0 && sp == 0 && sq == 0 {
		// White noise around the mean.
		m.residuals = make([]float64, n)
		variance := 0.0
		for i, v := range y {
			m.residuals[i] = v - m.intercept
			variance += m.residuals[i] * m.residuals[i]
		}
		if n > 1 {
			m.variance = variance / float64(n-1)
		}
		return nil
	}

	m.arCoeffs = make([]float64, p)
	m.maCoeffs = make([]float64, q)
	m.sarCoeffs = make([]float64, sp)
	m.smaCoeffs = make([]float64, sq)

	if p > 0 {
		if r := stats.ACFSlice(y, p); r != nil {
			if phi := yuleWalker(r, p); phi != nil {
				copy(m.arCoeffs, phi)
			}
		}
	}
	for i := range m.maCoeffs {
		m.maCoeffs[i] = 0.1
	}
	for i := range m.sarCoeffs {
		m.sarCoeffs[i] = 0.1
	}
	for i := range m.smaCoeffs {
		m.smaCoeffs[i] = 0.1
	}

	m.refine(y)
	return nil
}

// refine iteratively improves the CSS objective by gradient steps, keeping
// all coefficients inside the stationarity/invertibility bounds.
func (m *Model) refine(y []float64) {
	n := len(y)
	p, q := m.order.P, m.order.Q
	sp, sq := len(m.sarCoeffs), len(m.smaCoeffs)
	period := m.seasonal.Period
	start := m.startIndex()

	resid := make([]float64, n)
	for iter := 0; iter < cssMaxIter; iter++ {
		prevSSE := 0.0
		for t := start; t < n; t++ {
			resid[t] = y[t] - m.predictOne(y, resid, t)
			prevSSE += resid[t] * resid[t]
		}

		arGrad := make([]float64, p)
		maGrad := make([]float64, q)
		sarGrad := make([]float64, sp)
		smaGrad := make([]float64, sq)
		for t := start; t < n; t++ {
			for i := 0; i < p && t-i-1 >= 0; i++ {
				arGrad[i] -= 2 * resid[t] * (y[t-i-1] - m.intercept)
			}
			for i := 0; i < q && t-i-1 >= 0; i++ {
				maGrad[i] -= 2 * resid[t] * resid[t-i-1]
			}
			for i := 0; i < sp; i++ {
				if lag := t - (i+1)*period; lag >= 0 {
					sarGrad[i] -= 2 * resid[t] * (y[lag] - m.intercept)
				}
			}
			for i := 0; i < sq; i++ {
				if lag := t - (i+1)*period; lag >= 0 {
					smaGrad[i] -= 2 * resid[t] * resid[lag]
				}
			}
		}

		step := cssLearningRate / float64(n)
		for i := 0; i < p; i++ {
			m.arCoeffs[i] = clampCoeff(m.arCoeffs[i] - step*arGrad[i])
		}
		for i := 0; i < q; i++ {
			m.maCoeffs[i] = clampCoeff(m.maCoeffs[i] - step*maGrad[i])
		}
		for i := 0; i < sp; i++ {
			m.sarCoeffs[i] = clampCoeff(m.sarCoeffs[i] - step*sarGrad[i])
		}
		for i := 0; i < sq; i++ {
			m.smaCoeffs[i] = clampCoeff(m.smaCoeffs[i] - step*smaGrad[i])
		}

		newSSE := 0.0
		for t := start; t < n; t++ {
			resid[t] = y[t] - m.predictOne(y, resid, t)
			newSSE += resid[t] * resid[t]
		}
		if math.Abs(prevSSE-newSSE) < cssTolerance {
			break
		}
	}

	// Final residual pass over the whole series.
	m.residuals = make([]float64, n)
	for t := 0; t < n; t++ {
		if t < start {
			m.residuals[t] = y[t] - m.intercept
			continue
		}
		m.residuals[t] = y[t] - m.predictOne(y, m.residuals, t)
	}

	sse := 0.0
	count := 0
	for t := start; t < n; t++ {
		sse += m.residuals[t] * m.residuals[t]
		count++
	}
	nParams := p + q + sp + sq + 1
	if count > nParams {
		m.variance = sse / float64(count-nParams)
	} else if count > 0 {
		m.variance = sse / float64(count)
	}
	if m.variance <= 0 || math.IsNaN(m.variance) {
		m.variance = math.SmallestNonzeroFloat64
	}
}
