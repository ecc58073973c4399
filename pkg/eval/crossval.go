package eval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/mvracar/augur/pkg/models"
	"github.com/mvracar/augur/pkg/series"
)

// ErrSkipStep marks one cross-validation origin whose refit failed. The
// origin is excluded from aggregation and the run continues.
var ErrSkipStep = errors.New("origin skipped")

// CVResult aggregates the one-step rolling-origin errors for one model
// family over a series.
type CVResult struct {
	Model   string
	Family  models.Family
	Errors  []float64 // signed error per origin, NaN where skipped
	Origins int       // origins visited, skips included
	Skipped int
}

// MSE is the mean squared one-step error over the non-skipped origins,
// NaN when every origin was skipped.
func (r *CVResult) MSE() float64 {
	sum := 0.0
	n := 0
	for _, e := range r.Errors {
		if math.IsNaN(e) {
			continue
		}
		sum += e * e
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// RollingCrossValidator refits a model family on an expanding prefix of a
// series and scores the next out-of-sample point at every origin. Origins
// are independent given the immutable series, so refits run on a bounded
// worker pool.
type RollingCrossValidator struct {
	minWindow int
	workers   int
}

type CVOption func(*RollingCrossValidator)

// WithMinWindow sets the smallest training prefix attempted. Values below
// the model minimum are raised to it.
func WithMinWindow(n int) CVOption {
	return func(cv *RollingCrossValidator) {
		if n > 0 {
			cv.minWindow = n
		}
	}
}

// WithWorkers caps the number of concurrent refits.
func WithWorkers(n int) CVOption {
	return func(cv *RollingCrossValidator) {
		if n > 0 {
			cv.workers = n
		}
	}
}

func NewRollingCrossValidator(opts ...CVOption) *RollingCrossValidator {
	cv := &RollingCrossValidator{
		minWindow: models.MinObservations,
		workers:   runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(cv)
	}
	if cv.minWindow < models.MinObservations {
		cv.minWindow = models.MinObservations
	}
	return cv
}

// Run walks every origin from the minimum window to the final observation.
// At origin i the fitter is trained on series[0:i] and scored against the
// signed error series[i] - forecast. A failed refit records a skip, never
// an abort; only context cancellation stops the run.
func (cv *RollingCrossValidator) Run(ctx context.Context, fitter models.Fitter, s *series.TimeSeries) (*CVResult, error) {
	if fitter == nil || s == nil {
		return nil, fmt.Errorf("crossval: nil input: %w", models.ErrInvalidInput)
	}
	n := s.Len()
	if n <= cv.minWindow {
		return nil, fmt.Errorf("crossval: %d observations for a minimum window of %d: %w",
			n, cv.minWindow, models.ErrInvalidInput)
	}

	origins := n - cv.minWindow
	errs := make([]float64, origins)
	skips := make([]bool, origins)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cv.workers)
	for slot := 0; slot < origins; slot++ {
		slot := slot
		g.Go(func() error {
			origin := cv.minWindow + slot
			e, err := oneStepError(gctx, fitter, s, origin)
			switch {
			case errors.Is(err, ErrSkipStep):
				skips[slot] = true
				errs[slot] = math.NaN()
				return nil
			case err != nil:
				return err
			default:
				errs[slot] = e
				return nil
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &CVResult{
		Family:  fitter.Family(),
		Model:   string(fitter.Family()),
		Errors:  errs,
		Origins: origins,
	}
	for _, skipped := range skips {
		if skipped {
			res.Skipped++
		}
	}
	return res, nil
}

// oneStepError refits on the prefix ending at origin and scores the single
// next point. Fit failures and degenerate forecasts map to ErrSkipStep;
// context errors pass through untouched.
func oneStepError(ctx context.Context, fitter models.Fitter, s *series.TimeSeries, origin int) (float64, error) {
	fm, err := fitter.Fit(ctx, s.Window(0, origin))
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("%w at origin %d: %v", ErrSkipStep, origin, err)
	}

	fc, err := fm.Forecast(1, nil)
	if err != nil {
		return 0, fmt.Errorf("%w at origin %d: %v", ErrSkipStep, origin, err)
	}
	point := fc.Points[0]
	if !isFinite(point) {
		return 0, fmt.Errorf("%w at origin %d: non-finite forecast", ErrSkipStep, origin)
	}
	return s.At(origin) - point, nil
}
