package series

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrInvalidInput = errors.New("invalid input")

// TimeSeries is an ordered sequence of (timestamp, value) observations with
// strictly increasing timestamps and finite values. Instances are immutable
// after construction, so concurrent readers never need synchronization.
type TimeSeries struct {
	timestamps []time.Time
	values     []float64
}

// Load builds a series from equally spaced values starting at start. Non-finite
// entries are dropped rather than carried into later statistics.
func Load(values []float64, start time.Time, step time.Duration) (*TimeSeries, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("load: empty input: %w", ErrInvalidInput)
	}
	if step <= 0 {
		return nil, fmt.Errorf("load: non-positive step: %w", ErrInvalidInput)
	}

	ts := make([]time.Time, 0, len(values))
	vs := make([]float64, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		ts = append(ts, start.Add(time.Duration(i)*step))
		vs = append(vs, v)
	}
	if len(vs) == 0 {
		return nil, fmt.Errorf("load: no finite values: %w", ErrInvalidInput)
	}
	return &TimeSeries{timestamps: ts, values: vs}, nil
}

// FromPoints builds a series from explicit timestamps. Observations with
// non-finite values are dropped. Timestamps must be strictly increasing.
func FromPoints(timestamps []time.Time, values []float64) (*TimeSeries, error) {
	if len(timestamps) != len(values) {
		return nil, fmt.Errorf("from points: %d timestamps, %d values: %w",
			len(timestamps), len(values), ErrInvalidInput)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("from points: empty input: %w", ErrInvalidInput)
	}

	ts := make([]time.Time, 0, len(values))
	vs := make([]float64, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if len(ts) > 0 && !timestamps[i].After(ts[len(ts)-1]) {
			return nil, fmt.Errorf("from points: timestamp %s not increasing at index %d: %w",
				timestamps[i], i, ErrInvalidInput)
		}
		ts = append(ts, timestamps[i])
		vs = append(vs, v)
	}
	if len(vs) == 0 {
		return nil, fmt.Errorf("from points: no finite values: %w", ErrInvalidInput)
	}
	return &TimeSeries{timestamps: ts, values: vs}, nil
}

func (s *TimeSeries) Len() int              { return len(s.values) }
func (s *TimeSeries) At(i int) float64      { return s.values[i] }
func (s *TimeSeries) TimeAt(i int) time.Time { return s.timestamps[i] }
func (s *TimeSeries) Start() time.Time      { return s.timestamps[0] }
func (s *TimeSeries) End() time.Time        { return s.timestamps[len(s.timestamps)-1] }

// Values returns a copy of the observation values.
func (s *TimeSeries) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

// Timestamps returns a copy of the observation timestamps.
func (s *TimeSeries) Timestamps() []time.Time {
	out := make([]time.Time, len(s.timestamps))
	copy(out, s.timestamps)
	return out
}

func (s *TimeSeries) Mean() float64 {
	sum := 0.0
	for _, v := range s.values {
		sum += v
	}
	return sum / float64(len(s.values))
}

func (s *TimeSeries) Variance() float64 {
	if len(s.values) < 2 {
		return 0
	}
	mean := s.Mean()
	sumSq := 0.0
	for _, v := range s.values {
		d := v - mean
		sumSq += d * d
	}
	return sumSq / float64(len(s.values)-1)
}

func (s *TimeSeries) Std() float64 { return math.Sqrt(s.Variance()) }

// Diff returns the first difference of the series.
func (s *TimeSeries) Diff() *TimeSeries { return s.SeasonalDiff(1) }

// SeasonalDiff returns the lag-m difference of the series. An empty series is
// returned when fewer than m+1 observations are available.
func (s *TimeSeries) SeasonalDiff(m int) *TimeSeries {
	if m <= 0 || len(s.values) <= m {
		return &TimeSeries{}
	}
	vs := make([]float64, len(s.values)-m)
	ts := make([]time.Time, len(s.values)-m)
	for i := m; i < len(s.values); i++ {
		vs[i-m] = s.values[i] - s.values[i-m]
		ts[i-m] = s.timestamps[i]
	}
	return &TimeSeries{timestamps: ts, values: vs}
}

// Window returns observations in [start, end). Bounds are clamped.
func (s *TimeSeries) Window(start, end int) *TimeSeries {
	if start < 0 {
		start = 0
	}
	if end > len(s.values) {
		end = len(s.values)
	}
	if start >= end {
		return &TimeSeries{}
	}
	vs := make([]float64, end-start)
	ts := make([]time.Time, end-start)
	copy(vs, s.values[start:end])
	copy(ts, s.timestamps[start:end])
	return &TimeSeries{timestamps: ts, values: vs}
}

// Split holds the train/test partition of a series. Train entirely precedes
// test and their concatenation reconstructs the original series.
type Split struct {
	Train *TimeSeries
	Test  *TimeSeries
}

// Split partitions the series so that the training window holds
// floor(ratio*n) observations. Both windows must be non-empty.
func (s *TimeSeries) Split(ratio float64) (Split, error) {
	if ratio <= 0 || ratio >= 1 {
		return Split{}, fmt.Errorf("split: ratio %v outside (0, 1): %w", ratio, ErrInvalidInput)
	}
	cut := int(math.Floor(ratio * float64(len(s.values))))
	if cut == 0 || cut == len(s.values) {
		return Split{}, fmt.Errorf("split: ratio %v leaves an empty window for %d observations: %w",
			ratio, len(s.values), ErrInvalidInput)
	}
	return Split{Train: s.Window(0, cut), Test: s.Window(cut, s.Len())}, nil
}
