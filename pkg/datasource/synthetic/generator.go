// Package synthetic generates geometric-Brownian daily bars, for pipeline
// runs without network or stored data.
package synthetic

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/govalues/decimal"

	"github.com/mvracar/augur/pkg/datasource"
	"github.com/mvracar/augur/pkg/market"
)

const (
	barGeneratorComponentName = "datasource.synthetic.generator"

	tradingDaysPerYear = 252.0
)

// BarGenerator yields a fixed number of daily bars following a geometric
// Brownian motion with annualized drift mu and volatility sigma.
// Deterministic for a seeded rng.
type BarGenerator struct {
	symbol string
	rng    *rand.Rand

	startTime time.Time
	mu        float64
	sigma     float64
	steps     int
	t         int

	volumeBase     float64
	volumeVariance float64

	lastClose  float64
	priceScale int
}

func NewBarGenerator(symbol string, rng *rand.Rand, startTime time.Time, startPrice, mu, sigma float64, steps int) *BarGenerator {
	return &BarGenerator{
		symbol: symbol,
		rng:    rng,

		startTime: startTime,
		mu:        mu,
		sigma:     sigma,
		steps:     steps,

		volumeBase:     1_000_000,
		volumeVariance: 0.4,

		lastClose:  startPrice,
		priceScale: 2,
	}
}

// GetNext yields the next daily bar, datasource.ErrEOF after the configured
// number of steps.
func (g *BarGenerator) GetNext() (market.Bar, error) {
	if g.t >= g.steps {
		return market.Bar{}, datasource.ErrEOF
	}

	dt := 1.0 / tradingDaysPerYear
	drift := (g.mu - 0.5*g.sigma*g.sigma) * dt
	shock := g.sigma * math.Sqrt(dt) * g.rng.NormFloat64()

	open := g.lastClose
	cls := open * math.Exp(drift+shock)

	// Intraday extremes stretch beyond the open/close range by a fraction
	// of the daily volatility.
	span := open * g.sigma * math.Sqrt(dt)
	high := math.Max(open, cls) + math.Abs(g.rng.NormFloat64())*span*0.5
	low := math.Min(open, cls) - math.Abs(g.rng.NormFloat64())*span*0.5

	volume := g.volumeBase * (1 + g.volumeVariance*(2*g.rng.Float64()-1))

	bar, err := g.buildBar(open, high, low, cls, volume)
	if err != nil {
		return market.Bar{}, err
	}

	g.lastClose = cls
	g.t++
	return bar, nil
}

func (g *BarGenerator) buildBar(open, high, low, cls, volume float64) (market.Bar, error) {
	toDecimal := func(v float64) (decimal.Decimal, error) {
		d, err := decimal.NewFromFloat64(v)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("value %v: %w", v, err)
		}
		return d.Rescale(g.priceScale), nil
	}

	o, err := toDecimal(open)
	if err != nil {
		return market.Bar{}, err
	}
	h, err := toDecimal(high)
	if err != nil {
		return market.Bar{}, err
	}
	l, err := toDecimal(low)
	if err != nil {
		return market.Bar{}, err
	}
	c, err := toDecimal(cls)
	if err != nil {
		return market.Bar{}, err
	}
	v, err := decimal.NewFromFloat64(math.Round(volume))
	if err != nil {
		return market.Bar{}, fmt.Errorf("volume %v: %w", volume, err)
	}

	return market.Bar{
		Source:    barGeneratorComponentName,
		Symbol:    g.symbol,
		RunID:     market.GetRunID(),
		TimeStamp: g.startTime.AddDate(0, 0, g.t),
		Period:    24 * time.Hour,
		Open:      o,
		High:      h,
		Low:       l,
		Close:     c,
		Volume:    v,
	}, nil
}
