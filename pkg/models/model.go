// Package models defines the capability interfaces shared by the forecasting
// families: a Fitter trains on a series and yields an immutable FittedModel,
// which produces point forecasts with prediction intervals.
package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mvracar/augur/pkg/series"
	"github.com/mvracar/augur/pkg/stats"
)

// Family identifies a forecasting model family.
type Family string

const (
	FamilyARIMA Family = "ARIMA"
	FamilyETS   Family = "ETS"
)

// MinObservations is the minimum viable training length for any family.
const MinObservations = 10

var ErrInvalidInput = errors.New("invalid input")

// FitError reports a failed model fit together with the family and series
// window involved.
type FitError struct {
	Family Family
	Start  time.Time
	End    time.Time
	NObs   int
	Err    error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("fit %s on [%s, %s] (%d obs): %v",
		e.Family, e.Start.Format(time.DateOnly), e.End.Format(time.DateOnly), e.NObs, e.Err)
}

func (e *FitError) Unwrap() error { return e.Err }

// NewFitError wraps err with the family and window of the failed fit.
func NewFitError(family Family, s *series.TimeSeries, err error) *FitError {
	fe := &FitError{Family: family, Err: err}
	if s != nil && s.Len() > 0 {
		fe.Start = s.Start()
		fe.End = s.End()
		fe.NObs = s.Len()
	}
	return fe
}

// Fitter trains a model of one family on a series. Implementations perform no
// I/O and honor ctx cancellation between candidate evaluations.
type Fitter interface {
	Family() Family
	Fit(ctx context.Context, s *series.TimeSeries) (FittedModel, error)
}

// FittedModel is an opaque, immutable handle to a trained model.
type FittedModel interface {
	Family() Family
	// Spec describes the selected hyperparameters, e.g. "ARIMA(2,1,1)".
	Spec() string
	Forecast(horizon int, levels []float64) (*Forecast, error)
	Residuals() []float64
	Criteria() stats.Criteria
}
