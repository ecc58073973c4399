package arima

import (
	"context"
	"fmt"
	"math"

	"github.com/mvracar/augur/pkg/models"
	"github.com/mvracar/augur/pkg/series"
	"github.com/mvracar/augur/pkg/stats"
)

// Fitter selects and estimates the ARIMA order minimizing AICc. The
// differencing order comes from the KPSS/ADF stationarity tests alone; the
// (p, q) orders from a stepwise neighborhood search, optionally exhaustive.
// The zero search space defaults mirror the usual auto-ARIMA bounds.
type Fitter struct {
	maxP, maxQ, maxD int
	seasonalPeriod   int
	stepwise         bool
}

func NewFitter(opts ...FitterOption) *Fitter {
	f := &Fitter{
		maxP:     5,
		maxQ:     5,
		maxD:     2,
		stepwise: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fitter) Family() models.Family { return models.FamilyARIMA }

// Fit selects the best order on the series and returns the fitted model.
func (f *Fitter) Fit(ctx context.Context, s *series.TimeSeries) (models.FittedModel, error) {
	if s == nil || s.Len() < models.MinObservations {
		n := 0
		if s != nil {
			n = s.Len()
		}
		return nil, models.NewFitError(models.FamilyARIMA, s,
			&lengthError{have: n, need: models.MinObservations})
	}

	d := stats.NDiffs(s, f.maxD)

	seasonal := SeasonalOrder{}
	if f.seasonalPeriod > 1 && s.Len() >= 2*f.seasonalPeriod {
		seasonal.Period = f.seasonalPeriod
		if stats.SeasonalStrength(s, f.seasonalPeriod) >= 0.64 {
			seasonal.D = 1
		}
	}

	best, err := f.search(ctx, s, d, seasonal)
	if err != nil {
		return nil, models.NewFitError(models.FamilyARIMA, s, err)
	}
	return best, nil
}

type candidate struct {
	p, q, sp, sq int
}

func (f *Fitter) search(ctx context.Context, s *series.TimeSeries, d int, seasonal SeasonalOrder) (*Model, error) {
	var best *Model
	bestAICc := math.Inf(1)
	tried := map[candidate]bool{}

	eval := func(c candidate) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if tried[c] || c.p < 0 || c.q < 0 || c.p > f.maxP || c.q > f.maxQ {
			return nil
		}
		if seasonal.Period > 1 && (c.sp < 0 || c.sq < 0 || c.sp > 2 || c.sq > 2) {
			return nil
		}
		tried[c] = true

		so := seasonal
		so.P, so.Q = c.sp, c.sq
		m, err := Fit(s, Order{P: c.p, D: d, Q: c.q}, so)
		if err != nil {
			return nil // candidate rejected, not fatal
		}
		if aicc := m.Criteria().AICc; aicc < bestAICc {
			bestAICc = aicc
			best = m
		}
		return nil
	}

	if !f.stepwise {
		for p := 0; p <= f.maxP; p++ {
			for q := 0; q <= f.maxQ; q++ {
				if err := eval(candidate{p: p, q: q}); err != nil {
					return nil, err
				}
			}
		}
		if best == nil {
			return nil, ErrNoCandidate
		}
		return best, nil
	}

	starts := []candidate{{0, 0, 0, 0}, {1, 0, 0, 0}, {0, 1, 0, 0}, {1, 1, 0, 0}, {2, 2, 0, 0}}
	if seasonal.Period > 1 {
		starts = append(starts, candidate{1, 0, 1, 0}, candidate{0, 1, 0, 1}, candidate{1, 1, 1, 1})
	}
	for _, c := range starts {
		if err := eval(c); err != nil {
			return nil, err
		}
	}
	if best == nil {
		return nil, ErrNoCandidate
	}

	// Walk the neighborhood of the incumbent until no move improves AICc.
	for improved := true; improved; {
		improved = false
		cur := candidate{
			p: best.order.P, q: best.order.Q,
			sp: best.seasonal.P, sq: best.seasonal.Q,
		}
		prev := bestAICc
		moves := []candidate{
			{cur.p + 1, cur.q, cur.sp, cur.sq},
			{cur.p - 1, cur.q, cur.sp, cur.sq},
			{cur.p, cur.q + 1, cur.sp, cur.sq},
			{cur.p, cur.q - 1, cur.sp, cur.sq},
			{cur.p + 1, cur.q + 1, cur.sp, cur.sq},
			{cur.p - 1, cur.q - 1, cur.sp, cur.sq},
		}
		if seasonal.Period > 1 {
			moves = append(moves,
				candidate{cur.p, cur.q, cur.sp + 1, cur.sq},
				candidate{cur.p, cur.q, cur.sp - 1, cur.sq},
				candidate{cur.p, cur.q, cur.sp, cur.sq + 1},
				candidate{cur.p, cur.q, cur.sp, cur.sq - 1},
			)
		}
		for _, c := range moves {
			if err := eval(c); err != nil {
				return nil, err
			}
		}
		if bestAICc < prev {
			improved = true
		}
	}
	return best, nil
}

type lengthError struct {
	have, need int
}

func (e *lengthError) Error() string {
	return fmt.Sprintf("series too short: have %d, need %d", e.have, e.need)
}

func (e *lengthError) Is(target error) bool { return target == ErrTooShort }
