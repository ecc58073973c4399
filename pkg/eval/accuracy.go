// Package eval scores point forecasts against held-out actuals and runs
// rolling-origin cross-validation across model families.
package eval

import (
	"fmt"
	"math"

	"github.com/mvracar/augur/pkg/models"
	"github.com/mvracar/augur/pkg/series"
	"github.com/mvracar/augur/pkg/stats"
)

// Metric names one accuracy statistic.
type Metric string

const (
	ME   Metric = "ME"
	RMSE Metric = "RMSE"
	MAE  Metric = "MAE"
	MPE  Metric = "MPE"
	MAPE Metric = "MAPE"
	MASE Metric = "MASE"
	ACF1 Metric = "ACF1"
)

// Metrics lists every reported statistic in table order.
var Metrics = []Metric{ME, RMSE, MAE, MPE, MAPE, MASE, ACF1}

// AccuracyReport holds the metric values for one (model, evaluation set)
// pair. Values is keyed by metric name; a metric whose denominator vanishes
// entirely is reported as NaN.
type AccuracyReport struct {
	Model  string
	Family models.Family
	Values map[Metric]float64
}

// Get returns the named metric value, NaN when absent.
func (r *AccuracyReport) Get(m Metric) float64 {
	if v, ok := r.Values[m]; ok {
		return v
	}
	return math.NaN()
}

// Accuracy scores a forecast against the held-out actuals. The forecast
// horizon must equal the actual length. Positions with a non-finite actual
// are skipped in every metric; positions with a zero actual are additionally
// skipped in the percentage-error denominators.
func Accuracy(fc *models.Forecast, actual *series.TimeSeries) (*AccuracyReport, error) {
	if fc == nil || actual == nil {
		return nil, fmt.Errorf("accuracy: nil input: %w", models.ErrInvalidInput)
	}
	if fc.Horizon() != actual.Len() {
		return nil, fmt.Errorf("accuracy: forecast horizon %d vs %d actuals: %w",
			fc.Horizon(), actual.Len(), models.ErrInvalidInput)
	}

	var errs []float64
	var sumErr, sumSq, sumAbs float64
	var sumPct, sumAbsPct float64
	var nPct int
	for i := 0; i < actual.Len(); i++ {
		a := actual.At(i)
		if !isFinite(a) {
			continue
		}
		e := a - fc.Points[i]
		errs = append(errs, e)
		sumErr += e
		sumSq += e * e
		sumAbs += math.Abs(e)
		if a != 0 {
			sumPct += e / a
			sumAbsPct += math.Abs(e / a)
			nPct++
		}
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("accuracy: no finite actuals: %w", models.ErrInvalidInput)
	}

	n := float64(len(errs))
	mae := sumAbs / n

	values := map[Metric]float64{
		ME:   sumErr / n,
		RMSE: math.Sqrt(sumSq / n),
		MAE:  mae,
		MPE:  math.NaN(),
		MAPE: math.NaN(),
		MASE: math.NaN(),
		ACF1: stats.Lag1Autocorr(errs),
	}
	if nPct > 0 {
		values[MPE] = sumPct / float64(nPct) * 100
		values[MAPE] = sumAbsPct / float64(nPct) * 100
	}

	// The scale denominator is the mean absolute first difference of the
	// held-out actuals themselves, not the conventional in-sample naive
	// forecast scale. Changing this would change every reported MASE.
	if scale := meanAbsDiff(actual); scale > 0 {
		values[MASE] = mae / scale
	}

	return &AccuracyReport{Model: fc.Spec, Family: fc.Family, Values: values}, nil
}

func meanAbsDiff(s *series.TimeSeries) float64 {
	sum := 0.0
	n := 0
	for i := 1; i < s.Len(); i++ {
		prev, cur := s.At(i-1), s.At(i)
		if !isFinite(prev) || !isFinite(cur) {
			continue
		}
		sum += math.Abs(cur - prev)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
