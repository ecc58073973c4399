package stats

import "math"

// olsRegression fits y = X*beta by ordinary least squares and returns the
// coefficients with their standard errors. Nil is returned when the design
// matrix is singular.
func olsRegression(x [][]float64, y []float64) (coeffs, stdErrors []float64) {
	n := len(y)
	if n == 0 || len(x) != n {
		return nil, nil
	}
	k := len(x[0])

	xtx := make([][]float64, k)
	for i := range xtx {
		xtx[i] = make([]float64, k)
	}
	xty := make([]float64, k)
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			xty[j] += x[i][j] * y[i]
			for l := 0; l < k; l++ {
				xtx[j][l] += x[i][j] * x[i][l]
			}
		}
	}

	inv := invertMatrix(xtx)
	if inv == nil {
		return nil, nil
	}

	coeffs = make([]float64, k)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			coeffs[i] += inv[i][j] * xty[j]
		}
	}

	sse := 0.0
	for i := 0; i < n; i++ {
		pred := 0.0
		for j := 0; j < k; j++ {
			pred += coeffs[j] * x[i][j]
		}
		r := y[i] - pred
		sse += r * r
	}
	if n <= k {
		return coeffs, nil
	}

	s2 := sse / float64(n-k)
	stdErrors = make([]float64, k)
	for i := 0; i < k; i++ {
		stdErrors[i] = math.Sqrt(s2 * inv[i][i])
	}
	return coeffs, stdErrors
}

// invertMatrix inverts a square matrix by Gauss-Jordan elimination with
// partial pivoting. Nil is returned for singular input.
func invertMatrix(m [][]float64) [][]float64 {
	n := len(m)
	if n == 0 {
		return nil
	}

	aug := make([][]float64, n)
	for i := 0; i < n; i++ {
		aug[i] = make([]float64, 2*n)
		copy(aug[i][:n], m[i])
		aug[i][n+i] = 1
	}

	for i := 0; i < n; i++ {
		maxRow := i
		for k := i + 1; k < n; k++ {
			if math.Abs(aug[k][i]) > math.Abs(aug[maxRow][i]) {
				maxRow = k
			}
		}
		aug[i], aug[maxRow] = aug[maxRow], aug[i]

		if math.Abs(aug[i][i]) < 1e-10 {
			return nil
		}

		pivot := aug[i][i]
		for j := 0; j < 2*n; j++ {
			aug[i][j] /= pivot
		}
		for k := 0; k < n; k++ {
			if k == i {
				continue
			}
			factor := aug[k][i]
			for j := 0; j < 2*n; j++ {
				aug[k][j] -= factor * aug[i][j]
			}
		}
	}

	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = make([]float64, n)
		copy(out[i], aug[i][n:])
	}
	return out
}
