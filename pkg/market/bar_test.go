package market

import (
	"errors"
	"testing"
	"time"

	"github.com/govalues/decimal"
)

func bar(day int, low, close, high int64) Bar {
	return Bar{
		Symbol:    "TEST",
		TimeStamp: time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Period:    24 * time.Hour,
		Open:      decimal.MustNew(low, 0),
		High:      decimal.MustNew(high, 0),
		Low:       decimal.MustNew(low, 0),
		Close:     decimal.MustNew(close, 0),
		Volume:    decimal.MustNew(1000, 0),
	}
}

func TestBarValidate(t *testing.T) {
	if err := bar(1, 99, 100, 101).Validate(); err != nil {
		t.Errorf("valid bar rejected: %v", err)
	}
	if err := bar(1, 101, 100, 99).Validate(); !errors.Is(err, ErrInvalidBar) {
		t.Errorf("high below low accepted: %v", err)
	}
	if err := bar(1, 99, 105, 101).Validate(); !errors.Is(err, ErrInvalidBar) {
		t.Errorf("close above high accepted: %v", err)
	}
}

func TestCloseSeries(t *testing.T) {
	bars := []Bar{bar(1, 99, 100, 101), bar(2, 100, 102, 103), bar(3, 100, 101, 103)}
	s, err := CloseSeries(bars)
	if err != nil {
		t.Fatalf("close series: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("len = %d, want 3", s.Len())
	}
	want := []float64{100, 102, 101}
	for i, w := range want {
		if s.At(i) != w {
			t.Errorf("close[%d] = %v, want %v", i, s.At(i), w)
		}
	}
}

func TestCloseSeries_UnorderedRejected(t *testing.T) {
	bars := []Bar{bar(2, 99, 100, 101), bar(1, 100, 102, 103)}
	if _, err := CloseSeries(bars); !errors.Is(err, ErrInvalidBar) {
		t.Fatalf("expected ErrInvalidBar, got %v", err)
	}
}

func TestCloseSeries_Empty(t *testing.T) {
	if _, err := CloseSeries(nil); !errors.Is(err, ErrInvalidBar) {
		t.Fatalf("expected ErrInvalidBar, got %v", err)
	}
}

func TestRunID_StableUntilReset(t *testing.T) {
	a := GetRunID()
	if b := GetRunID(); a != b {
		t.Errorf("run id changed between calls: %s vs %s", a, b)
	}
	if c := ResetRunID(); c == a {
		t.Errorf("reset returned the previous id %s", c)
	}
}
