package models

import (
	"fmt"
	"math"
	"sort"
)

// DefaultLevels are the prediction-interval confidence levels reported when
// the caller does not ask for specific ones.
var DefaultLevels = []float64{80, 95}

// Band holds the lower and upper prediction-interval bounds at one confidence
// level, indexed by horizon step.
type Band struct {
	Level float64
	Lower []float64
	Upper []float64
}

// Forecast is a read-only point-forecast sequence with prediction intervals,
// produced by a FittedModel.
type Forecast struct {
	Family Family
	Spec   string
	Points []float64
	Bands  []Band // ascending by level
}

func (f *Forecast) Horizon() int { return len(f.Points) }

// Band returns the interval at the given confidence level.
func (f *Forecast) Band(level float64) (Band, bool) {
	for _, b := range f.Bands {
		if b.Level == level {
			return b, true
		}
	}
	return Band{}, false
}

// NewForecast assembles a forecast from point predictions and per-step
// standard errors, building symmetric Gaussian intervals at the requested
// levels. Wider levels always contain narrower ones.
func NewForecast(family Family, spec string, points, stderr []float64, levels []float64) (*Forecast, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("forecast: empty point sequence: %w", ErrInvalidInput)
	}
	if len(stderr) != len(points) {
		return nil, fmt.Errorf("forecast: %d stderr for %d points: %w",
			len(stderr), len(points), ErrInvalidInput)
	}
	if len(levels) == 0 {
		levels = DefaultLevels
	}

	sorted := make([]float64, len(levels))
	copy(sorted, levels)
	sort.Float64s(sorted)

	bands := make([]Band, 0, len(sorted))
	for _, level := range sorted {
		if level <= 0 || level >= 100 {
			return nil, fmt.Errorf("forecast: confidence level %v outside (0, 100): %w",
				level, ErrInvalidInput)
		}
		z := normalQuantile(0.5 + level/200)
		lower := make([]float64, len(points))
		upper := make([]float64, len(points))
		for i := range points {
			lower[i] = points[i] - z*stderr[i]
			upper[i] = points[i] + z*stderr[i]
		}
		bands = append(bands, Band{Level: level, Lower: lower, Upper: upper})
	}

	return &Forecast{Family: family, Spec: spec, Points: points, Bands: bands}, nil
}

// normalQuantile approximates the standard normal inverse CDF using the
// Beasley-Springer-Moro algorithm.
func normalQuantile(p float64) float64 {
	if p <= 0 || p >= 1 {
		return math.NaN()
	}

	a := [...]float64{2.50662823884, -18.61500062529, 41.39119773534, -25.44106049637}
	b := [...]float64{-8.47351093090, 23.08336743743, -21.06224101826, 3.13082909833}
	c := [...]float64{
		0.3374754822726147, 0.9761690190917186, 0.1607979714918209,
		0.0276438810333863, 0.0038405729373609, 0.0003951896511919,
		0.0000321767881768, 0.0000002888167364, 0.0000003960315187,
	}

	y := p - 0.5
	if math.Abs(y) < 0.42 {
		r := y * y
		num := y * (((a[3]*r+a[2])*r+a[1])*r + a[0])
		den := (((b[3]*r+b[2])*r+b[1])*r+b[0])*r + 1
		return num / den
	}

	r := p
	if y > 0 {
		r = 1 - p
	}
	r = math.Log(-math.Log(r))
	x := c[0]
	pow := 1.0
	for i := 1; i < len(c); i++ {
		pow *= r
		x += c[i] * pow
	}
	if y < 0 {
		return -x
	}
	return x
}
