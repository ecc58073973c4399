// Package market defines the daily-bar and quote types flowing between the
// data sources and the evaluation pipeline. Prices are carried as exact
// decimals end to end and converted to floats only at the series boundary.
package market

import (
	"errors"
	"fmt"
	"time"

	"github.com/govalues/decimal"

	"github.com/mvracar/augur/pkg/series"
)

var ErrInvalidBar = errors.New("invalid bar")

// Bar is one daily OHLCV observation for a symbol.
type Bar struct {
	Source    string          `json:"src,omitempty"`
	Symbol    string          `json:"symbol,omitempty"`
	RunID     RunID           `json:"run,omitempty"`
	TimeStamp time.Time       `json:"ts"`
	Period    time.Duration   `json:"period"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
}

// Validate checks internal bar consistency.
func (b Bar) Validate() error {
	if b.TimeStamp.IsZero() {
		return fmt.Errorf("%w: zero timestamp", ErrInvalidBar)
	}
	if b.High.Cmp(b.Low) < 0 {
		return fmt.Errorf("%w: high %s below low %s", ErrInvalidBar, b.High, b.Low)
	}
	if b.Close.Cmp(b.Low) < 0 || b.Close.Cmp(b.High) > 0 {
		return fmt.Errorf("%w: close %s outside [%s, %s]", ErrInvalidBar, b.Close, b.Low, b.High)
	}
	return nil
}

// Quote is one streamed trade observation.
type Quote struct {
	Source    string          `json:"src,omitempty"`
	Symbol    string          `json:"symbol,omitempty"`
	RunID     RunID           `json:"run,omitempty"`
	TimeStamp time.Time       `json:"ts"`
	Price     decimal.Decimal `json:"price"`
	Volume    decimal.Decimal `json:"volume"`
}

// CloseSeries converts ordered bars into the closing-price series consumed
// by the models. Bars must be ordered by timestamp with no duplicates; a
// close that does not convert to a finite float rejects the whole batch.
func CloseSeries(bars []Bar) (*series.TimeSeries, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no bars", ErrInvalidBar)
	}

	timestamps := make([]time.Time, len(bars))
	closes := make([]float64, len(bars))
	for i, b := range bars {
		if i > 0 && !bars[i-1].TimeStamp.Before(b.TimeStamp) {
			return nil, fmt.Errorf("%w: timestamps not strictly increasing at %d", ErrInvalidBar, i)
		}
		v, ok := b.Close.Float64()
		if !ok {
			return nil, fmt.Errorf("%w: close %s not representable at %d", ErrInvalidBar, b.Close, i)
		}
		timestamps[i] = b.TimeStamp
		closes[i] = v
	}
	return series.FromPoints(timestamps, closes)
}
