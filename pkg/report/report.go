// Package report assembles the per-model accuracy and cross-validation
// results of one evaluation run into printable and persistable tables.
package report

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/mvracar/augur/pkg/eval"
	"github.com/mvracar/augur/pkg/market"
	"github.com/mvracar/augur/pkg/models"
)

// ModelResult carries everything reported for one model family. Err records
// the first failed stage; the artifacts of the stages that completed before
// it stay set and still render.
type ModelResult struct {
	Family   models.Family
	Spec     string
	Accuracy *eval.AccuracyReport
	CV       *eval.CVResult
	Forecast *models.Forecast
	Err      error
}

// Comparison is the final artifact of one run.
type Comparison struct {
	RunID     market.RunID
	Symbol    string
	StartDate time.Time
	EndDate   time.Time
	TrainLen  int
	TestLen   int
	Results   []ModelResult
}

// Best returns the successful result with the lowest cross-validation MSE,
// or false when no family produced one.
func (c *Comparison) Best() (ModelResult, bool) {
	best := ModelResult{}
	bestMSE := math.Inf(1)
	found := false
	for _, r := range c.Results {
		if r.CV == nil {
			continue
		}
		if mse := r.CV.MSE(); !math.IsNaN(mse) && mse < bestMSE {
			bestMSE = mse
			best = r
			found = true
		}
	}
	return best, found
}

// Print logs the comparison tables.
func (c *Comparison) Print(logger *zap.Logger) {
	logger.Info("evaluation run",
		zap.String("run", c.RunID.String()),
		zap.String("symbol", c.Symbol),
		zap.Time("start", c.StartDate),
		zap.Time("end", c.EndDate),
		zap.Int("train", c.TrainLen),
		zap.Int("test", c.TestLen),
	)

	for _, r := range c.Results {
		if r.Err != nil {
			// A failure drops only the stages after it; whatever completed
			// before still renders below.
			logger.Warn("model failed",
				zap.String("family", string(r.Family)),
				zap.Error(r.Err),
			)
		}

		if r.Accuracy != nil {
			fields := []zap.Field{
				zap.String("model", r.Spec),
			}
			for _, m := range eval.Metrics {
				fields = append(fields, zap.String(string(m), formatValue(r.Accuracy.Get(m))))
			}
			logger.Info("accuracy", fields...)
		}

		if r.CV != nil {
			logger.Info("cross-validation",
				zap.String("model", r.Spec),
				zap.String("MSE", formatValue(r.CV.MSE())),
				zap.Int("origins", r.CV.Origins),
				zap.Int("skipped", r.CV.Skipped),
			)
		}
	}

	if best, ok := c.Best(); ok {
		logger.Info("preferred model",
			zap.String("model", best.Spec),
			zap.String("cv_mse", formatValue(best.CV.MSE())),
		)
	}
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v)
}
