package historical

import (
	"fmt"
	"time"

	"github.com/mvracar/augur/pkg/datasource"
	"github.com/mvracar/augur/pkg/market"
)

const (
	invalidIndex           = -1
	barReaderComponentName = "datasource.historical.reader"
)

// BarReader iterates the cached bars of one symbol inside a time range,
// locating the first record by binary search on the ordered cache.
type BarReader struct {
	cache *Cache

	symbol string
	from   int64
	to     int64
	idx    int64
}

func NewBarReader(cache *Cache, symbol string, from, to time.Time) *BarReader {
	return &BarReader{
		cache: cache,
		symbol: symbol,
		from:   from.UnixNano(),
		to:     to.UnixNano(),
		idx:    invalidIndex,
	}
}

// GetNext yields the next bar in range, datasource.ErrEOF past the end.
func (r *BarReader) GetNext() (market.Bar, error) {
	if r.idx == invalidIndex {
		if err := r.lookupStartIndex(); err != nil {
			return market.Bar{}, err
		}
	}

	record, err := r.cache.Read(r.idx)
	if err != nil {
		if err == datasource.ErrEOF {
			return market.Bar{}, datasource.ErrEOF
		}
		return market.Bar{}, fmt.Errorf("error reading record at index %d: %w", r.idx, err)
	}
	r.idx++

	if record.TimeStamp < r.from {
		return market.Bar{}, fmt.Errorf("record timestamp before the requested range")
	}

	if record.TimeStamp > r.to {
		return market.Bar{}, datasource.ErrEOF
	}

	bar, err := record.ToBar(r.symbol)
	if err != nil {
		return market.Bar{}, fmt.Errorf("error decoding record at index %d: %w", r.idx-1, err)
	}

	bar.Source = barReaderComponentName
	bar.RunID = market.GetRunID()

	return bar, nil
}

// lookupStartIndex finds the first record with timestamp >= from.
func (r *BarReader) lookupStartIndex() error {
	entryCount, err := r.cache.EntryCount()
	if err != nil {
		return fmt.Errorf("error getting entry count: %w", err)
	}

	if entryCount == 0 {
		return fmt.Errorf("bar cache is empty")
	}

	low := int64(0)
	high := entryCount - 1

	for low <= high {
		mid := (low + high) / 2

		record, err := r.cache.Read(mid)
		if err != nil {
			return fmt.Errorf("error reading record at index %d: %w", mid, err)
		}

		if record.TimeStamp < r.from {
			low = mid + 1
		} else {
			high = mid - 1
		}
	}

	if low >= entryCount {
		return datasource.ErrEOF
	}

	r.idx = low
	return nil
}
