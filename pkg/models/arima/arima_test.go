package arima

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/mvracar/augur/pkg/models"
	"github.com/mvracar/augur/pkg/series"
)

func mustSeries(t *testing.T, values []float64) *series.TimeSeries {
	t.Helper()
	s, err := series.Load(values, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 24*time.Hour)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

// ar1Series generates an AR(1) process with a deterministic innovation
// sequence so the tests are reproducible.
func ar1Series(t *testing.T, n int, phi, mean float64) *series.TimeSeries {
	t.Helper()
	values := make([]float64, n)
	values[0] = mean
	for i := 1; i < n; i++ {
		innovation := float64(i%7-3) / 3
		values[i] = phi*(values[i-1]-mean) + mean + innovation
	}
	return mustSeries(t, values)
}

func randomWalk(t *testing.T, n int) *series.TimeSeries {
	t.Helper()
	values := make([]float64, n)
	values[0] = 100
	for i := 1; i < n; i++ {
		values[i] = values[i-1] + float64(i%5-2)/2
	}
	return mustSeries(t, values)
}

func TestFit_AR1(t *testing.T) {
	s := ar1Series(t, 200, 0.7, 100)
	m, err := Fit(s, Order{P: 1}, SeasonalOrder{})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if len(m.arCoeffs) != 1 {
		t.Fatalf("ar coeffs = %d, want 1", len(m.arCoeffs))
	}
	if math.Abs(m.arCoeffs[0]) > 0.99 {
		t.Errorf("ar coeff %v escaped stationarity bounds", m.arCoeffs[0])
	}
	if len(m.Residuals()) == 0 {
		t.Error("no residuals after fit")
	}
	if m.variance <= 0 {
		t.Errorf("variance = %v, want > 0", m.variance)
	}
}

func TestFit_TooShort(t *testing.T) {
	s := mustSeries(t, []float64{1, 2, 3, 4, 5})
	if _, err := Fit(s, Order{P: 1, D: 1, Q: 1}, SeasonalOrder{}); !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
}

func TestFit_WhiteNoise(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = 10 + float64(i%5-2)
	}
	m, err := Fit(mustSeries(t, values), Order{}, SeasonalOrder{})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if math.Abs(m.intercept-10) > 0.5 {
		t.Errorf("intercept = %v, want ~10", m.intercept)
	}
}

func TestForecast_HorizonAndBands(t *testing.T) {
	s := ar1Series(t, 150, 0.6, 50)
	m, err := Fit(s, Order{P: 1}, SeasonalOrder{})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	fc, err := m.Forecast(10, []float64{80, 95})
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if fc.Horizon() != 10 {
		t.Fatalf("horizon = %d, want 10", fc.Horizon())
	}

	b80, ok := fc.Band(80)
	if !ok {
		t.Fatal("missing 80% band")
	}
	b95, ok := fc.Band(95)
	if !ok {
		t.Fatal("missing 95% band")
	}
	for h := 0; h < 10; h++ {
		if b95.Lower[h] > b80.Lower[h] || b95.Upper[h] < b80.Upper[h] {
			t.Errorf("step %d: 95%% band [%v, %v] does not contain 80%% band [%v, %v]",
				h, b95.Lower[h], b95.Upper[h], b80.Lower[h], b80.Upper[h])
		}
		if b80.Lower[h] > fc.Points[h] || b80.Upper[h] < fc.Points[h] {
			t.Errorf("step %d: point forecast outside 80%% band", h)
		}
	}
}

func TestForecast_IntervalWidensWithHorizon(t *testing.T) {
	m, err := Fit(randomWalk(t, 150), Order{D: 1}, SeasonalOrder{})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	fc, err := m.Forecast(12, nil)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	b, ok := fc.Band(95)
	if !ok {
		t.Fatal("missing default 95% band")
	}
	firstWidth := b.Upper[0] - b.Lower[0]
	lastWidth := b.Upper[11] - b.Lower[11]
	if lastWidth <= firstWidth {
		t.Errorf("interval width %v at h=12 not wider than %v at h=1", lastWidth, firstWidth)
	}
}

func TestForecast_SecondDifference(t *testing.T) {
	// y = t^2 has a constant second difference of 2, so ARIMA(0,2,0)
	// forecasts must continue the exact squares.
	values := make([]float64, 20)
	for i := range values {
		values[i] = float64((i + 1) * (i + 1))
	}
	m, err := Fit(mustSeries(t, values), Order{D: 2}, SeasonalOrder{})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}

	fc, err := m.Forecast(3, nil)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	want := []float64{441, 484, 529}
	for h, w := range want {
		if math.Abs(fc.Points[h]-w) > 1e-6 {
			t.Errorf("step %d: forecast = %v, want %v", h+1, fc.Points[h], w)
		}
	}
}

func TestForecast_InvalidHorizon(t *testing.T) {
	m, err := Fit(ar1Series(t, 100, 0.5, 0), Order{P: 1}, SeasonalOrder{})
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if _, err := m.Forecast(0, nil); !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPsiWeights_RandomWalk(t *testing.T) {
	m := &Model{order: Order{D: 1}}
	psi := m.psiWeights(5)
	for i, w := range psi {
		if math.Abs(w-1) > 1e-12 {
			t.Errorf("psi[%d] = %v, want 1 for a pure random walk", i, w)
		}
	}
}

func TestYuleWalker_AR1(t *testing.T) {
	// For a pure AR(1), acf[1] is the coefficient itself.
	phi := yuleWalker([]float64{1, 0.7}, 1)
	if phi == nil || math.Abs(phi[0]-0.7) > 1e-12 {
		t.Fatalf("yule-walker AR(1) = %v, want [0.7]", phi)
	}
}

func TestFitter_SelectsDifferencingForRandomWalk(t *testing.T) {
	f := NewFitter(WithMaxOrder(2, 2))
	fm, err := f.Fit(context.Background(), randomWalk(t, 200))
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	m := fm.(*Model)
	if m.Order().D < 1 {
		t.Errorf("selected d = %d for a random walk, want >= 1", m.Order().D)
	}
	if m.Spec() == "" {
		t.Error("empty spec")
	}
}

func TestFitter_StationarySeriesNeedsNoDifferencing(t *testing.T) {
	f := NewFitter(WithMaxOrder(3, 3))
	fm, err := f.Fit(context.Background(), ar1Series(t, 200, 0.5, 100))
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	if d := fm.(*Model).Order().D; d != 0 {
		t.Errorf("selected d = %d for a stationary series, want 0", d)
	}
}

func TestFitter_TooShort(t *testing.T) {
	f := NewFitter()
	_, err := f.Fit(context.Background(), mustSeries(t, []float64{1, 2, 3}))
	var fe *models.FitError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *models.FitError, got %v", err)
	}
	if fe.Family != models.FamilyARIMA {
		t.Errorf("family = %s, want ARIMA", fe.Family)
	}
	if !errors.Is(err, ErrTooShort) {
		t.Errorf("expected wrapped ErrTooShort, got %v", err)
	}
}

func TestFitter_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := NewFitter()
	if _, err := f.Fit(ctx, ar1Series(t, 200, 0.5, 100)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFitter_ExhaustiveMatchesBounds(t *testing.T) {
	f := NewFitter(WithMaxOrder(1, 1), WithExhaustiveSearch())
	fm, err := f.Fit(context.Background(), ar1Series(t, 150, 0.6, 20))
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	o := fm.(*Model).Order()
	if o.P > 1 || o.Q > 1 {
		t.Errorf("order (%d,%d) outside bounds (1,1)", o.P, o.Q)
	}
}
