package stats

import "math"

// LjungBoxResult holds the portmanteau test for residual autocorrelation.
type LjungBoxResult struct {
	Statistic float64
	PValue    float64
	Lags      int
	DOF       int
}

// LjungBox tests residuals for autocorrelation up to the given lag. fitdf is
// the number of parameters estimated by the model whose residuals are being
// tested. A p-value below 0.05 indicates leftover autocorrelation.
func LjungBox(residuals []float64, lags, fitdf int) *LjungBoxResult {
	n := len(residuals)
	if n < 10 || lags < 1 {
		return nil
	}
	if lags >= n {
		lags = n - 1
	}

	r := acf(residuals, lags)
	if r == nil {
		return nil
	}

	q := 0.0
	for k := 1; k <= lags; k++ {
		q += (r[k] * r[k]) / float64(n-k)
	}
	q *= float64(n * (n + 2))

	dof := lags - fitdf
	if dof < 1 {
		dof = 1
	}

	return &LjungBoxResult{
		Statistic: q,
		PValue:    1 - chiSquaredCDF(q, dof),
		Lags:      lags,
		DOF:       dof,
	}
}

// chiSquaredCDF evaluates the chi-squared CDF via the regularized lower
// incomplete gamma function P(k/2, x/2).
func chiSquaredCDF(x float64, k int) float64 {
	if x < 0 {
		return 0
	}
	return lowerIncompleteGamma(float64(k)/2, x/2) / gammaFn(float64(k)/2)
}

// gammaFn is the Lanczos approximation of the gamma function.
func gammaFn(z float64) float64 {
	if z < 0.5 {
		return math.Pi / (math.Sin(math.Pi*z) * gammaFn(1-z))
	}

	z--
	const g = 7
	c := [...]float64{
		0.99999999999980993,
		676.5203681218851,
		-1259.1392167224028,
		771.32342877765313,
		-176.61502916214059,
		12.507343278686905,
		-0.13857109526572012,
		9.9843695780195716e-6,
		1.5056327351493116e-7,
	}

	x := c[0]
	for i := 1; i < g+2; i++ {
		x += c[i] / (z + float64(i))
	}
	t := z + float64(g) + 0.5
	return math.Sqrt(2*math.Pi) * math.Pow(t, z+0.5) * math.Exp(-t) * x
}

func lowerIncompleteGamma(a, x float64) float64 {
	if x < 0 || a <= 0 {
		return 0
	}
	if x < a+1 {
		return gammaIncSeries(a, x)
	}
	return gammaFn(a) - gammaIncCF(a, x)
}

func gammaIncSeries(a, x float64) float64 {
	if x == 0 {
		return 0
	}
	const maxIter = 200
	const eps = 1e-10

	ap := a
	sum := 1.0 / a
	del := sum
	for n := 1; n < maxIter; n++ {
		ap++
		del *= x / ap
		sum += del
		if math.Abs(del) < math.Abs(sum)*eps {
			break
		}
	}
	return sum * math.Exp(-x+a*math.Log(x))
}

func gammaIncCF(a, x float64) float64 {
	const maxIter = 200
	const eps = 1e-10
	const fpmin = 1e-30

	b := x + 1 - a
	c := 1.0 / fpmin
	d := 1.0 / b
	h := d
	for i := 1; i < maxIter; i++ {
		an := -float64(i) * (float64(i) - a)
		b += 2
		d = an*d + b
		if math.Abs(d) < fpmin {
			d = fpmin
		}
		c = b + an/c
		if math.Abs(c) < fpmin {
			c = fpmin
		}
		d = 1 / d
		del := d * c
		h *= del
		if math.Abs(del-1) < eps {
			break
		}
	}
	return math.Exp(-x+a*math.Log(x)-math.Log(gammaFn(a))) * h * gammaFn(a)
}
