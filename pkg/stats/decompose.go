package stats

import (
	"math"

	"github.com/mvracar/augur/pkg/series"
)

// DecompositionKind selects between additive (Y = T + S + R) and
// multiplicative (Y = T * S * R) decomposition.
type DecompositionKind string

const (
	Additive       DecompositionKind = "additive"
	Multiplicative DecompositionKind = "multiplicative"
)

// Decomposition holds the classical seasonal decomposition of a series.
// Trend and residual carry NaN at the edges the centered moving average
// cannot cover.
type Decomposition struct {
	Trend    []float64
	Seasonal []float64
	Residual []float64
	Pattern  []float64 // one seasonal cycle, length = period
	Period   int
	Kind     DecompositionKind
}

// Decompose performs classical seasonal decomposition with a centered moving
// average trend. Nil is returned when fewer than two full periods are
// available.
func Decompose(s *series.TimeSeries, period int, kind DecompositionKind) *Decomposition {
	n := s.Len()
	if period < 2 || n < 2*period {
		return nil
	}
	if kind != Multiplicative {
		kind = Additive
	}

	values := s.Values()
	trend := centeredMA(values, period)

	detrended := make([]float64, n)
	for i := 0; i < n; i++ {
		switch {
		case math.IsNaN(trend[i]):
			detrended[i] = math.NaN()
		case kind == Multiplicative:
			if trend[i] == 0 {
				detrended[i] = math.NaN()
			} else {
				detrended[i] = values[i] / trend[i]
			}
		default:
			detrended[i] = values[i] - trend[i]
		}
	}

	pattern := make([]float64, period)
	counts := make([]int, period)
	for i := 0; i < n; i++ {
		if math.IsNaN(detrended[i]) {
			continue
		}
		pattern[i%period] += detrended[i]
		counts[i%period]++
	}
	for i := 0; i < period; i++ {
		if counts[i] > 0 {
			pattern[i] /= float64(counts[i])
		}
	}

	// Normalize so seasonal effects sum to zero (additive) or average to
	// one (multiplicative).
	sum := 0.0
	for _, v := range pattern {
		sum += v
	}
	mean := sum / float64(period)
	for i := range pattern {
		if kind == Multiplicative {
			if mean != 0 {
				pattern[i] /= mean
			}
		} else {
			pattern[i] -= mean
		}
	}

	seasonal := make([]float64, n)
	for i := 0; i < n; i++ {
		seasonal[i] = pattern[i%period]
	}

	residual := make([]float64, n)
	for i := 0; i < n; i++ {
		switch {
		case math.IsNaN(trend[i]):
			residual[i] = math.NaN()
		case kind == Multiplicative:
			if trend[i] == 0 || seasonal[i] == 0 {
				residual[i] = math.NaN()
			} else {
				residual[i] = values[i] / (trend[i] * seasonal[i])
			}
		default:
			residual[i] = values[i] - trend[i] - seasonal[i]
		}
	}

	return &Decomposition{
		Trend:    trend,
		Seasonal: seasonal,
		Residual: residual,
		Pattern:  pattern,
		Period:   period,
		Kind:     kind,
	}
}

// SeasonalStrength measures the strength of seasonality as
// max(0, 1 - Var(R)/Var(S+R)). Values of 0.64 and above suggest a seasonal
// difference is warranted.
func SeasonalStrength(s *series.TimeSeries, period int) float64 {
	d := Decompose(s, period, Additive)
	if d == nil {
		return 0
	}

	varR := nanVariance(d.Residual)
	sr := make([]float64, len(d.Residual))
	for i := range sr {
		if math.IsNaN(d.Residual[i]) {
			sr[i] = math.NaN()
		} else {
			sr[i] = d.Seasonal[i] + d.Residual[i]
		}
	}
	varSR := nanVariance(sr)
	if varSR == 0 {
		return 0
	}
	return math.Max(0, 1-varR/varSR)
}

// centeredMA computes a centered moving average of the given period, with a
// 2xm average when the period is even. Edges are NaN.
func centeredMA(values []float64, period int) []float64 {
	n := len(values)
	out := make([]float64, n)
	half := period / 2
	for i := range out {
		out[i] = math.NaN()
	}
	for i := half; i < n-half; i++ {
		if period%2 == 1 {
			sum := 0.0
			for j := i - half; j <= i+half; j++ {
				sum += values[j]
			}
			out[i] = sum / float64(period)
			continue
		}
		// Even period: weight the two outermost points by half.
		sum := values[i-half]/2 + values[i+half]/2
		for j := i - half + 1; j < i+half; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(period)
	}
	return out
}

func nanVariance(data []float64) float64 {
	valid := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	n := len(valid)
	if n < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range valid {
		sum += v
	}
	mean := sum / float64(n)
	sumSq := 0.0
	for _, v := range valid {
		d := v - mean
		sumSq += d * d
	}
	return sumSq / float64(n-1)
}
