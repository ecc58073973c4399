package synthetic

import (
	"math/rand"
	"time"
)

// NewEquityBarGenerator is a preset for a typical large-cap equity: start
// around 150, 8% annual drift, 25% annualized volatility.
func NewEquityBarGenerator(symbol string, rng *rand.Rand, startTime time.Time, days int) *BarGenerator {
	const (
		startPrice = 150.0
		mu         = 0.08
		sigma      = 0.25
	)
	return NewBarGenerator(symbol, rng, startTime, startPrice, mu, sigma, days)
}
