package stats

import (
	"math"
	"testing"
	"time"

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

func approxEqual(t *testing.T, got, want, tol float64, msg string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %v, want %v (tol %v)", msg, got, want, tol)
	}
}

func TestACF(t *testing.T) {
	s := mustSeries(t, []float64{1, 2, 3, 4})
	r := ACF(s, 1)
	if r == nil {
		t.Fatal("nil acf")
	}
	approxEqual(t, r[0], 1, 1e-12, "acf lag 0")
	approxEqual(t, r[1], 0.25, 1e-12, "acf lag 1")
}

func TestACF_ConstantSeries(t *testing.T) {
	s := mustSeries(t, []float64{5, 5, 5, 5})
	if r := ACF(s, 2); r != nil {
		t.Errorf("expected nil acf for constant series, got %v", r)
	}
}

func TestLag1Autocorr_Alternating(t *testing.T) {
	got := Lag1Autocorr([]float64{1, -1, 1, -1, 1, -1, 1, -1})
	approxEqual(t, got, -0.875, 1e-12, "alternating lag-1")
}

func TestPACF_AR1(t *testing.T) {
	// AR(1) generated with phi=0.7 and zero noise decays geometrically, so
	// the PACF must cut off after lag 1.
	n := 50
	values := make([]float64, n)
	values[0] = 1
	for i := 1; i < n; i++ {
		values[i] = 0.7 * values[i-1]
	}
	p := PACF(mustSeries(t, values), 5)
	if p == nil {
		t.Fatal("nil pacf")
	}
	if math.Abs(p[1]) < 0.5 {
		t.Errorf("pacf[1] = %v, expected dominant first lag", p[1])
	}
	for k := 2; k <= 5; k++ {
		if math.Abs(p[k]) > math.Abs(p[1]) {
			t.Errorf("pacf[%d] = %v exceeds pacf[1] = %v", k, p[k], p[1])
		}
	}
}

func TestChiSquaredCDF(t *testing.T) {
	tests := []struct {
		x    float64
		k    int
		want float64
	}{
		{x: 3.841, k: 1, want: 0.95},
		{x: 5.991, k: 2, want: 0.95},
		{x: 18.307, k: 10, want: 0.95},
		{x: 0, k: 3, want: 0},
	}
	for _, tt := range tests {
		approxEqual(t, chiSquaredCDF(tt.x, tt.k), tt.want, 0.005, "chi-squared cdf")
	}
}

func TestLjungBox_WhiteNoise(t *testing.T) {
	// Deterministic aperiodic sequence behaves like white noise for the
	// purposes of the portmanteau statistic.
	n := 200
	residuals := make([]float64, n)
	for i := 0; i < n; i++ {
		residuals[i] = math.Sin(float64(i)*12.9898) * 43758.5453
		residuals[i] -= math.Floor(residuals[i])
		residuals[i] -= 0.5
	}
	lb := LjungBox(residuals, 10, 0)
	if lb == nil {
		t.Fatal("nil result")
	}
	if lb.PValue < 0.01 {
		t.Errorf("white noise rejected: Q=%v p=%v", lb.Statistic, lb.PValue)
	}
}

func TestLjungBox_Autocorrelated(t *testing.T) {
	n := 200
	residuals := make([]float64, n)
	residuals[0] = 1
	for i := 1; i < n; i++ {
		noise := math.Sin(float64(i) * 12.9898)
		residuals[i] = 0.9*residuals[i-1] + 0.1*noise
	}
	lb := LjungBox(residuals, 10, 0)
	if lb == nil {
		t.Fatal("nil result")
	}
	if lb.PValue > 0.05 {
		t.Errorf("strong autocorrelation not detected: Q=%v p=%v", lb.Statistic, lb.PValue)
	}
}

func TestNDiffs(t *testing.T) {
	// Linear trend needs at least one difference.
	trend := make([]float64, 100)
	for i := range trend {
		trend[i] = float64(i) + math.Sin(float64(i)*1.7)
	}
	if d := NDiffs(mustSeries(t, trend), 2); d < 1 {
		t.Errorf("NDiffs(trend) = %d, want >= 1", d)
	}

	// Bounded oscillation is already stationary.
	flat := make([]float64, 100)
	for i := range flat {
		flat[i] = math.Sin(float64(i) * 1.7)
	}
	if d := NDiffs(mustSeries(t, flat), 2); d != 0 {
		t.Errorf("NDiffs(stationary) = %d, want 0", d)
	}
}

func TestDecompose_RecoverPattern(t *testing.T) {
	pattern := []float64{-3, 1, 3, -1}
	values := make([]float64, 24)
	for i := range values {
		values[i] = 10 + pattern[i%4]
	}

	d := Decompose(mustSeries(t, values), 4, Additive)
	if d == nil {
		t.Fatal("nil decomposition")
	}
	for i, want := range pattern {
		approxEqual(t, d.Pattern[i], want, 1e-9, "seasonal pattern")
	}
	if s := SeasonalStrength(mustSeries(t, values), 4); s < 0.99 {
		t.Errorf("seasonal strength = %v, want ~1", s)
	}
}

func TestDecompose_TooShort(t *testing.T) {
	if d := Decompose(mustSeries(t, []float64{1, 2, 3, 4, 5}), 4, Additive); d != nil {
		t.Error("expected nil for fewer than two periods")
	}
}

func TestNewCriteria(t *testing.T) {
	c := NewCriteria(-10, 20, 3)
	approxEqual(t, c.AIC, 26, 1e-9, "aic")
	approxEqual(t, c.AICc, 27.5, 1e-9, "aicc")
	approxEqual(t, c.BIC, -2*(-10)+3*math.Log(20), 1e-9, "bic")
}

func TestNewCriteria_DegenerateAICc(t *testing.T) {
	c := NewCriteria(-10, 4, 3)
	if !math.IsInf(c.AICc, 1) {
		t.Errorf("AICc = %v, want +Inf when n-k-1 <= 0", c.AICc)
	}
}

func TestOLSRegression(t *testing.T) {
	// Exact fit of y = 2 + 3x.
	x := [][]float64{{1, 0}, {1, 1}, {1, 2}, {1, 3}}
	y := []float64{2, 5, 8, 11}
	coeffs, _ := olsRegression(x, y)
	if coeffs == nil {
		t.Fatal("nil coefficients")
	}
	approxEqual(t, coeffs[0], 2, 1e-9, "intercept")
	approxEqual(t, coeffs[1], 3, 1e-9, "slope")
}

func TestInvertMatrix_Singular(t *testing.T) {
	if inv := invertMatrix([][]float64{{1, 2}, {2, 4}}); inv != nil {
		t.Error("expected nil for singular matrix")
	}
}
