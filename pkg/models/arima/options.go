package arima

// FitterOption configures the order search space.
type FitterOption func(*Fitter)

// WithMaxOrder bounds the non-seasonal (p, q) search.
func WithMaxOrder(maxP, maxQ int) FitterOption {
	return func(f *Fitter) {
		if maxP >= 0 {
			f.maxP = maxP
		}
		if maxQ >= 0 {
			f.maxQ = maxQ
		}
	}
}

// WithMaxD bounds the differencing order chosen by the stationarity tests.
func WithMaxD(maxD int) FitterOption {
	return func(f *Fitter) {
		if maxD >= 0 {
			f.maxD = maxD
		}
	}
}

// WithSeasonal enables the seasonal search at the given period.
func WithSeasonal(period int) FitterOption {
	return func(f *Fitter) {
		if period > 1 {
			f.seasonalPeriod = period
		}
	}
}

// WithExhaustiveSearch disables the stepwise shortcut and evaluates the full
// (p, q) grid.
func WithExhaustiveSearch() FitterOption {
	return func(f *Fitter) {
		f.stepwise = false
	}
}
