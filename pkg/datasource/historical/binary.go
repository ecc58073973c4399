package historical

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/govalues/decimal"

	"github.com/mvracar/augur/pkg/market"
)

// BinaryBar is the fixed 48-byte on-disk record, little endian, ordered by
// timestamp. The layout is load-bearing: Source reads records by offset.
type BinaryBar struct {
	TimeStamp int64 // Unix nanoseconds
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// FromBar flattens a bar into its cache record.
func FromBar(bar market.Bar) BinaryBar {
	open, _ := bar.Open.Float64()
	high, _ := bar.High.Float64()
	low, _ := bar.Low.Float64()
	cls, _ := bar.Close.Float64()
	vol, _ := bar.Volume.Float64()

	return BinaryBar{
		TimeStamp: bar.TimeStamp.UnixNano(),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     cls,
		Volume:    vol,
	}
}

// ToBar rebuilds a bar from its cache record.
func (b BinaryBar) ToBar(symbol string) (market.Bar, error) {
	open, err := decimal.NewFromFloat64(b.Open)
	if err != nil {
		return market.Bar{}, fmt.Errorf("open: %w", err)
	}
	high, err := decimal.NewFromFloat64(b.High)
	if err != nil {
		return market.Bar{}, fmt.Errorf("high: %w", err)
	}
	low, err := decimal.NewFromFloat64(b.Low)
	if err != nil {
		return market.Bar{}, fmt.Errorf("low: %w", err)
	}
	cls, err := decimal.NewFromFloat64(b.Close)
	if err != nil {
		return market.Bar{}, fmt.Errorf("close: %w", err)
	}
	vol, err := decimal.NewFromFloat64(b.Volume)
	if err != nil {
		return market.Bar{}, fmt.Errorf("volume: %w", err)
	}

	return market.Bar{
		Symbol:    symbol,
		TimeStamp: time.Unix(0, b.TimeStamp).UTC(),
		Period:    24 * time.Hour,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     cls,
		Volume:    vol,
	}, nil
}

// WriteBars appends bars to a cache file in record order.
func WriteBars(w io.Writer, bars []market.Bar) error {
	for _, bar := range bars {
		if err := binary.Write(w, binary.LittleEndian, FromBar(bar)); err != nil {
			return fmt.Errorf("unable to write record at %s: %w", bar.TimeStamp, err)
		}
	}
	return nil
}
