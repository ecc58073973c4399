package stats

import (
	"math"

	"github.com/mvracar/augur/pkg/series"
)

// StationarityResult holds the outcome of a unit-root or stationarity test.
type StationarityResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	IsStationary bool
}

// ADF runs the Augmented Dickey-Fuller test with a constant term. The null
// hypothesis is a unit root; a p-value below 0.05 indicates stationarity.
// Nil is returned when the series is too short to regress.
func ADF(s *series.TimeSeries, maxLag int) *StationarityResult {
	n := s.Len()
	if n < 10 {
		return nil
	}

	if maxLag <= 0 {
		maxLag = int(math.Floor(math.Pow(float64(n-1), 1.0/3.0)))
	}
	if maxLag >= n-1 {
		maxLag = n - 2
	}

	diff := s.Diff()
	nObs := n - maxLag - 1
	if nObs < 10 {
		return nil
	}

	// delta_y_t = alpha + beta*y_{t-1} + sum(gamma_i * delta_y_{t-i}) + e_t,
	// testing beta = 0 against beta < 0.
	y := make([]float64, nObs)
	x := make([][]float64, nObs)
	for i := 0; i < nObs; i++ {
		t := i + maxLag
		y[i] = diff.At(t)
		x[i] = make([]float64, 2+maxLag)
		x[i][0] = 1
		x[i][1] = s.At(t)
		for j := 1; j <= maxLag; j++ {
			x[i][1+j] = diff.At(t - j)
		}
	}

	coeffs, se := olsRegression(x, y)
	if coeffs == nil || se == nil || len(se) < 2 || se[1] == 0 {
		return nil
	}

	tStat := coeffs[1] / se[1]
	pValue := mackinnonPValue(tStat)
	return &StationarityResult{
		Statistic:    tStat,
		PValue:       pValue,
		Lags:         maxLag,
		IsStationary: pValue < 0.05,
	}
}

// KPSS runs the Kwiatkowski-Phillips-Schmidt-Shin test for level
// stationarity. The null hypothesis is stationarity; a p-value of at least
// 0.05 indicates stationarity.
func KPSS(s *series.TimeSeries, nlags int) *StationarityResult {
	n := s.Len()
	if n < 10 {
		return nil
	}
	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}

	mean := s.Mean()
	residuals := make([]float64, n)
	for i := 0; i < n; i++ {
		residuals[i] = s.At(i) - mean
	}

	cumSum := make([]float64, n)
	cumSum[0] = residuals[0]
	for i := 1; i < n; i++ {
		cumSum[i] = cumSum[i-1] + residuals[i]
	}

	// Newey-West long-run variance with Bartlett weights.
	s2 := 0.0
	for _, r := range residuals {
		s2 += r * r
	}
	s2 /= float64(n)
	for l := 1; l <= nlags; l++ {
		cov := 0.0
		for i := l; i < n; i++ {
			cov += residuals[i] * residuals[i-l]
		}
		cov /= float64(n)
		s2 += 2 * (1 - float64(l)/float64(nlags+1)) * cov
	}
	if s2 <= 0 {
		s2 = 1e-10
	}

	etaSq := 0.0
	for _, cs := range cumSum {
		etaSq += cs * cs
	}
	stat := etaSq / (float64(n) * float64(n) * s2)
	pValue := kpssPValue(stat)

	return &StationarityResult{
		Statistic:    stat,
		PValue:       pValue,
		Lags:         nlags,
		IsStationary: pValue >= 0.05,
	}
}

// NDiffs returns the number of first differences needed for stationarity,
// bounded by maxD. KPSS and ADF must agree before a level is accepted as
// stationary, except when KPSS alone is emphatic.
func NDiffs(s *series.TimeSeries, maxD int) int {
	if maxD <= 0 {
		maxD = 2
	}
	current := s
	for d := 0; d < maxD; d++ {
		kpss := KPSS(current, 0)
		adf := ADF(current, 0)

		kpssOK := kpss != nil && kpss.IsStationary
		adfOK := adf != nil && adf.IsStationary
		if (kpssOK && adfOK) || (kpssOK && kpss.PValue > 0.1) {
			return d
		}

		current = current.Diff()
		if current.Len() < 10 {
			return d
		}
	}
	return maxD
}

// mackinnonPValue approximates the ADF p-value for the constant-only
// regression after MacKinnon (1994).
func mackinnonPValue(stat float64) float64 {
	switch {
	case stat < -3.96:
		return 0.001
	case stat < -3.43:
		return 0.01
	case stat < -2.86:
		return 0.05
	case stat < -2.57:
		return 0.10
	case stat < -1.94:
		return 0.25
	case stat < -1.62:
		return 0.50
	default:
		return math.Min(0.5+(stat+1.62)*0.25, 0.99)
	}
}

// kpssPValue approximates the KPSS p-value for level stationarity from the
// standard critical values.
func kpssPValue(stat float64) float64 {
	switch {
	case stat > 0.739:
		return 0.01
	case stat > 0.463:
		return 0.05
	case stat > 0.347:
		return 0.10
	default:
		return 0.10 + (0.347-stat)*0.5
	}
}
