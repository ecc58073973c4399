// Package stats provides the statistical routines backing model order
// selection and residual diagnostics: autocorrelation, stationarity tests,
// portmanteau tests and information criteria.
package stats

import (
	"math"

	"github.com/mvracar/augur/pkg/series"
)

// ACF returns autocorrelations for lags 0..maxLag. Nil is returned for a
// constant or empty series.
func ACF(s *series.TimeSeries, maxLag int) []float64 {
	values := s.Values()
	return acf(values, maxLag)
}

func acf(values []float64, maxLag int) []float64 {
	n := len(values)
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 || n == 0 {
		return nil
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	if variance == 0 {
		return nil
	}

	out := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		sum := 0.0
		for i := k; i < n; i++ {
			sum += (values[i] - mean) * (values[i-k] - mean)
		}
		out[k] = sum / variance
	}
	return out
}

// ACFSlice is ACF over a raw value slice, used where no TimeSeries exists
// (residuals, differenced values).
func ACFSlice(values []float64, maxLag int) []float64 {
	return acf(values, maxLag)
}

// Lag1Autocorr returns the lag-1 autocorrelation of values, or zero when the
// sequence is too short or constant.
func Lag1Autocorr(values []float64) float64 {
	r := acf(values, 1)
	if len(r) < 2 {
		return 0
	}
	return r[1]
}

// PACF returns partial autocorrelations for lags 0..maxLag computed with the
// Durbin-Levinson recursion. PACF at lag 0 is 1 by convention.
func PACF(s *series.TimeSeries, maxLag int) []float64 {
	n := s.Len()
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 1 {
		return nil
	}

	r := ACF(s, maxLag)
	if r == nil {
		return nil
	}

	pacf := make([]float64, maxLag+1)
	pacf[0] = 1

	phi := make([][]float64, maxLag+1)
	for i := range phi {
		phi[i] = make([]float64, maxLag+1)
	}
	phi[1][1] = r[1]
	pacf[1] = r[1]

	for k := 2; k <= maxLag; k++ {
		num := r[k]
		den := 1.0
		for j := 1; j < k; j++ {
			num -= phi[k-1][j] * r[k-j]
			den -= phi[k-1][j] * r[j]
		}
		if den == 0 {
			continue
		}
		phi[k][k] = num / den
		pacf[k] = phi[k][k]
		for j := 1; j < k; j++ {
			phi[k][j] = phi[k-1][j] - phi[k][k]*phi[k-1][k-j]
		}
	}
	return pacf
}

// ConfidenceBound returns the +-1.96/sqrt(n) white-noise band used to judge
// significance of sample autocorrelations.
func ConfidenceBound(n int) float64 {
	if n <= 0 {
		return 0
	}
	return 1.96 / math.Sqrt(float64(n))
}

// SignificantLags returns the lags (excluding lag 0) whose autocorrelation
// magnitude exceeds the given bound.
func SignificantLags(acf []float64, bound float64) []int {
	var out []int
	for i := 1; i < len(acf); i++ {
		if math.Abs(acf[i]) > bound {
			out = append(out, i)
		}
	}
	return out
}
