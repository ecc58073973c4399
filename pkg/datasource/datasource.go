// Package datasource defines the contracts between the evaluation pipeline
// and its bar suppliers: an HTTP provider, a DuckDB store, a binary cache
// and a live quote stream.
package datasource

import (
	"errors"

	"github.com/mvracar/augur/pkg/market"
)

var (
	// ErrDataUnavailable wraps any upstream failure to produce bars. It is
	// propagated to the caller unchanged.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrEOF signals the end of a bar source.
	ErrEOF = errors.New("EOF")
)

// BarSource yields ordered bars one at a time until ErrEOF.
type BarSource interface {
	GetNext() (market.Bar, error)
}

// Collect drains a source into a slice. ErrEOF terminates normally; any
// other error aborts with the bars read so far discarded.
func Collect(src BarSource) ([]market.Bar, error) {
	var bars []market.Bar
	for {
		bar, err := src.GetNext()
		if errors.Is(err, ErrEOF) {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}
}
