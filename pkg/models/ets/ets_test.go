package ets

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/mvracar/augur/pkg/models"
	"github.com/mvracar/augur/pkg/series"
)

func mustSeries(t *testing.T, values []float64) *series.TimeSeries {
	t.Helper()
	s, err := series.Load(values, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 24*time.Hour)
	if err != nil {
		t.Fatalf("load series: %v", err)
	}
	return s
}

// noise is a small deterministic perturbation keeping residual variance
// strictly positive.
func noise(i int) float64 {
	return (float64((i*37)%11) - 5) * 0.1
}

func levelSeries(t *testing.T, n int, level float64) *series.TimeSeries {
	t.Helper()
	values := make([]float64, n)
	for i := range values {
		values[i] = level + noise(i)
	}
	return mustSeries(t, values)
}

func trendSeries(t *testing.T, n int, level, slope float64) *series.TimeSeries {
	t.Helper()
	values := make([]float64, n)
	for i := range values {
		values[i] = level + slope*float64(i) + noise(i)
	}
	return mustSeries(t, values)
}

func seasonalSeries(t *testing.T, n int, level float64) *series.TimeSeries {
	t.Helper()
	pattern := []float64{5, -5, 3, -3}
	values := make([]float64, n)
	for i := range values {
		values[i] = level + pattern[i%4] + noise(i)*0.5
	}
	return mustSeries(t, values)
}

func TestFit_SimpleSmoothing(t *testing.T) {
	m, err := Fit(levelSeries(t, 100, 50), Config{Alpha: 0.3})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if m.Spec() != "ETS(A,N,N)" {
		t.Errorf("spec = %q, want ETS(A,N,N)", m.Spec())
	}
	fc, err := m.Forecast(3, nil)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	for h, p := range fc.Points {
		if math.Abs(p-50) > 2 {
			t.Errorf("point[%d] = %v, want near 50", h, p)
		}
	}
}

func TestFit_TooShort(t *testing.T) {
	_, err := Fit(mustSeries(t, []float64{1, 2, 3}), Config{Alpha: 0.3})
	if !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
}

func TestFit_MultiplicativeNeedsPositiveData(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = float64(i%5) - 2
	}
	_, err := Fit(mustSeries(t, values), Config{
		Error: ErrorMultiplicative, Alpha: 0.3,
	})
	if !errors.Is(err, ErrNoCandidate) {
		t.Fatalf("expected ErrNoCandidate, got %v", err)
	}
}

func TestFitter_SelectsTrend(t *testing.T) {
	fm, err := NewFitter().Fit(context.Background(), trendSeries(t, 120, 10, 2))
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	m := fm.(*Model)
	if m.Config().Trend == TrendNone {
		t.Errorf("selected %s for a trending series, want a trend component", m.Spec())
	}
	fc, err := m.Forecast(10, nil)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if gain := fc.Points[9] - fc.Points[0]; gain < 5 {
		t.Errorf("forecast gain over 9 steps = %v, want the upward trend continued", gain)
	}
}

func TestFitter_SelectsSeasonal(t *testing.T) {
	fm, err := NewFitter(WithPeriod(4)).Fit(context.Background(), seasonalSeries(t, 120, 100))
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	m := fm.(*Model)
	if m.Config().Seasonal == SeasonalNone {
		t.Fatalf("selected %s for a seasonal series, want a seasonal component", m.Spec())
	}
	fc, err := m.Forecast(4, nil)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	// 120 observations is a whole number of cycles, so step 1 lands on the
	// +5 phase and step 2 on the -5 phase.
	if diff := fc.Points[0] - fc.Points[1]; diff < 5 {
		t.Errorf("points[0]-points[1] = %v, want the ~10 peak-to-trough swing", diff)
	}
}

func TestFitter_LongPeriodUsesDecomposition(t *testing.T) {
	values := make([]float64, 150)
	for i := range values {
		values[i] = 100 + 10*math.Sin(2*math.Pi*float64(i)/30) + noise(i)*0.3
	}
	fm, err := NewFitter(WithPeriod(30)).Fit(context.Background(), mustSeries(t, values))
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if spec := fm.Spec(); !strings.HasSuffix(spec, "+decomp") {
		t.Errorf("spec = %q, want the decomposition suffix for period 30", spec)
	}
	fc, err := fm.Forecast(30, nil)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if fc.Horizon() != 30 {
		t.Errorf("horizon = %d, want 30", fc.Horizon())
	}
}

func TestFitter_TooShort(t *testing.T) {
	_, err := NewFitter().Fit(context.Background(), mustSeries(t, []float64{1, 2, 3}))
	var fe *models.FitError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *models.FitError, got %v", err)
	}
	if fe.Family != models.FamilyETS {
		t.Errorf("family = %s, want ETS", fe.Family)
	}
	if !errors.Is(err, ErrTooShort) {
		t.Errorf("expected ErrTooShort in the chain, got %v", err)
	}
}

func TestFitter_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewFitter().Fit(ctx, levelSeries(t, 100, 50)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestForecast_IntervalWidensWithHorizon(t *testing.T) {
	m, err := Fit(levelSeries(t, 100, 50), Config{Alpha: 0.5})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	fc, err := m.Forecast(10, []float64{95})
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	band, ok := fc.Band(95)
	if !ok {
		t.Fatal("missing 95% band")
	}
	first := band.Upper[0] - band.Lower[0]
	last := band.Upper[9] - band.Lower[9]
	if last <= first {
		t.Errorf("interval width %v at h=10 not wider than %v at h=1", last, first)
	}
}

func TestForecast_InvalidHorizon(t *testing.T) {
	m, err := Fit(levelSeries(t, 50, 50), Config{Alpha: 0.3})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if _, err := m.Forecast(0, nil); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestConfigSpec(t *testing.T) {
	tests := []struct {
		cfg  Config
		want string
	}{
		{Config{}, "ETS(A,N,N)"},
		{Config{Trend: TrendAdditive}, "ETS(A,A,N)"},
		{Config{Trend: TrendDamped, Seasonal: SeasonalAdditive}, "ETS(A,Ad,A)"},
		{Config{Error: ErrorMultiplicative, Trend: TrendAdditive, Seasonal: SeasonalMultiplicative}, "ETS(M,A,M)"},
	}
	for _, tt := range tests {
		if got := tt.cfg.spec(); got != tt.want {
			t.Errorf("spec(%+v) = %q, want %q", tt.cfg, got, tt.want)
		}
	}
}
