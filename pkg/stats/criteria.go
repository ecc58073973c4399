package stats

import "math"

// Criteria holds the information criteria for a fitted model.
type Criteria struct {
	LogLik float64
	AIC    float64
	AICc   float64
	BIC    float64
}

// GaussianLogLik computes the log-likelihood of residuals under a Gaussian
// error assumption with the given residual variance.
func GaussianLogLik(residuals []float64, variance float64) float64 {
	n := float64(len(residuals))
	if n == 0 || variance <= 0 {
		return math.Inf(-1)
	}
	sse := 0.0
	for _, r := range residuals {
		sse += r * r
	}
	return -n/2*math.Log(2*math.Pi) - n/2*math.Log(variance) - sse/(2*variance)
}

// NewCriteria computes AIC, small-sample corrected AICc and BIC from a
// log-likelihood, observation count and parameter count.
func NewCriteria(logLik float64, nObs, nParams int) Criteria {
	k := float64(nParams)
	n := float64(nObs)

	aic := -2*logLik + 2*k
	bic := -2*logLik + k*math.Log(n)

	aicc := math.Inf(1)
	if n-k-1 > 0 {
		aicc = aic + 2*k*(k+1)/(n-k-1)
	}

	return Criteria{LogLik: logLik, AIC: aic, AICc: aicc, BIC: bic}
}
