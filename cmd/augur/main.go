package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/mvracar/augur/internal/dbg"
	"github.com/mvracar/augur/pkg/config"
	"github.com/mvracar/augur/pkg/datasource"
	"github.com/mvracar/augur/pkg/datasource/duckdb"
	"github.com/mvracar/augur/pkg/datasource/historical"
	"github.com/mvracar/augur/pkg/datasource/provider"
	"github.com/mvracar/augur/pkg/datasource/stream"
	"github.com/mvracar/augur/pkg/datasource/synthetic"
	"github.com/mvracar/augur/pkg/eval"
	"github.com/mvracar/augur/pkg/market"
	"github.com/mvracar/augur/pkg/models"
	"github.com/mvracar/augur/pkg/models/arima"
	"github.com/mvracar/augur/pkg/models/ets"
	"github.com/mvracar/augur/pkg/report"
	"github.com/mvracar/augur/pkg/series"
	"github.com/mvracar/augur/pkg/stats"
)

func main() {
	configPath := flag.String("config", "augur.yaml", "configuration file")
	env := flag.String("env", "dev", "environment, dev or prod")
	flag.Parse()

	logger := dbg.NewLogger(*env)
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("error loading configuration", zap.Error(err))
	}

	if err := run(ctx, logger, cfg); err != nil {
		logger.Fatal("evaluation failed", zap.Error(err))
	}
	logger.Info("done")
}

func run(ctx context.Context, logger *zap.Logger, cfg *config.Config) error {
	bars, err := loadBars(ctx, logger, cfg)
	if err != nil {
		return err
	}
	logger.Info("bars loaded",
		zap.String("symbol", cfg.Symbol),
		zap.Int("count", len(bars)),
	)

	closes, err := market.CloseSeries(bars)
	if err != nil {
		return err
	}
	split, err := closes.Split(cfg.Evaluation.TrainRatio)
	if err != nil {
		return err
	}
	logDiagnostics(logger, split.Train)

	comparison := evaluate(ctx, logger, cfg, split)
	comparison.Print(logger)

	if err := writeOutputs(cfg.Output.Dir, cfg.Symbol, comparison); err != nil {
		return err
	}

	if cfg.Stream.Enabled {
		watchStream(ctx, logger, cfg)
	}
	return nil
}

// logDiagnostics reports unit-root tests and significant autocorrelation lags
// of the training window before any model is fitted.
func logDiagnostics(logger *zap.Logger, train *series.TimeSeries) {
	if adf := stats.ADF(train, 0); adf != nil {
		logger.Info("adf test",
			zap.Float64("statistic", adf.Statistic),
			zap.Float64("p_value", adf.PValue),
			zap.Bool("stationary", adf.IsStationary),
		)
	}
	if kpss := stats.KPSS(train, 0); kpss != nil {
		logger.Info("kpss test",
			zap.Float64("statistic", kpss.Statistic),
			zap.Float64("p_value", kpss.PValue),
			zap.Bool("stationary", kpss.IsStationary),
		)
	}

	maxLag := 20
	if train.Len()/2 < maxLag {
		maxLag = train.Len() / 2
	}
	acf := stats.ACF(train, maxLag)
	lags := stats.SignificantLags(acf, stats.ConfidenceBound(train.Len()))
	logger.Info("training window autocorrelation",
		zap.Int("ndiffs", stats.NDiffs(train, 2)),
		zap.Ints("significant_lags", lags),
	)
}

// evaluate runs both model families over the split. A failure in one family
// is recorded on its result and never aborts the other.
func evaluate(ctx context.Context, logger *zap.Logger, cfg *config.Config, split series.Split) *report.Comparison {
	var arimaOpts []arima.FitterOption
	var etsOpts []ets.FitterOption
	if period := cfg.Evaluation.SeasonalPeriod; period > 1 {
		arimaOpts = append(arimaOpts, arima.WithSeasonal(period))
		etsOpts = append(etsOpts, ets.WithPeriod(period))
	}

	fitters := []models.Fitter{
		arima.NewFitter(arimaOpts...),
		ets.NewFitter(etsOpts...),
	}

	cv := eval.NewRollingCrossValidator(
		eval.WithMinWindow(cfg.Evaluation.CV.MinWindow),
		eval.WithWorkers(cfg.Evaluation.CV.Workers),
	)

	comparison := &report.Comparison{
		RunID:     market.GetRunID(),
		Symbol:    cfg.Symbol,
		StartDate: split.Train.Start(),
		EndDate:   split.Test.End(),
		TrainLen:  split.Train.Len(),
		TestLen:   split.Test.Len(),
	}

	for _, fitter := range fitters {
		result := evaluateFamily(ctx, logger, fitter, cv, split, cfg.Evaluation.Levels)
		if result.Err != nil {
			logger.Warn("model family failed",
				zap.String("family", string(fitter.Family())),
				zap.Error(result.Err),
			)
		}
		comparison.Results = append(comparison.Results, result)
	}
	return comparison
}

func evaluateFamily(ctx context.Context, logger *zap.Logger, fitter models.Fitter, cv *eval.RollingCrossValidator, split series.Split, levels []float64) report.ModelResult {
	result := report.ModelResult{Family: fitter.Family()}

	fitted, err := fitter.Fit(ctx, split.Train)
	if err != nil {
		result.Err = err
		return result
	}
	result.Spec = fitted.Spec()

	if diag, ok := fitted.(interface{ LjungBox() *stats.LjungBoxResult }); ok {
		if lb := diag.LjungBox(); lb != nil {
			logger.Info("residual diagnostics",
				zap.String("model", result.Spec),
				zap.Float64("ljung_box", lb.Statistic),
				zap.Float64("p_value", lb.PValue),
				zap.Int("lags", lb.Lags),
			)
		}
	}

	forecast, err := fitted.Forecast(split.Test.Len(), levels)
	if err != nil {
		result.Err = err
		return result
	}
	result.Forecast = forecast

	accuracy, err := eval.Accuracy(forecast, split.Test)
	if err != nil {
		result.Err = err
		return result
	}
	result.Accuracy = accuracy

	cvResult, err := cv.Run(ctx, fitter, split.Train)
	if err != nil {
		result.Err = err
		return result
	}
	cvResult.Model = result.Spec
	result.CV = cvResult
	return result
}

func loadBars(ctx context.Context, logger *zap.Logger, cfg *config.Config) ([]market.Bar, error) {
	switch cfg.Data.Source {
	case "provider":
		client := provider.NewClient(cfg.Data.Provider.BaseURL, cfg.Data.Provider.APIKey)
		return client.DailyBars(ctx, cfg.Symbol, cfg.Data.From, cfg.Data.To)

	case "duckdb":
		store := duckdb.NewStore(cfg.Data.DuckDB.Path)
		if err := store.Connect(); err != nil {
			return nil, err
		}
		defer store.Close()

		var bars []market.Bar
		err := store.LoadBars(ctx, cfg.Symbol, cfg.Data.From, cfg.Data.To, func(bar market.Bar) error {
			bars = append(bars, bar)
			return nil
		})
		return bars, err

	case "cache":
		cache := historical.NewCache(cfg.Data.Cache.Path)
		if err := cache.Open(); err != nil {
			return nil, err
		}
		defer cache.Close()

		reader := historical.NewBarReader(cache, cfg.Symbol, cfg.Data.From, cfg.Data.To)
		return datasource.Collect(reader)

	case "synthetic":
		days := int(cfg.Data.To.Sub(cfg.Data.From).Hours() / 24)
		rng := rand.New(rand.NewSource(cfg.Data.Synthetic.Seed))
		gen := synthetic.NewEquityBarGenerator(cfg.Symbol, rng, cfg.Data.From, days)
		return datasource.Collect(gen)

	default:
		return nil, errors.New("unknown data source " + cfg.Data.Source)
	}
}

func writeOutputs(dir, symbol string, comparison *report.Comparison) error {
	writers := []struct {
		name  string
		write func(w io.Writer) error
	}{
		{symbol + "_accuracy.csv", comparison.WriteAccuracyCSV},
		{symbol + "_cv.csv", comparison.WriteCVCSV},
		{symbol + "_forecast.csv", comparison.WriteForecastCSV},
	}

	for _, w := range writers {
		f, err := os.Create(filepath.Join(dir, w.name))
		if err != nil {
			return err
		}
		if err := w.write(f); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

// watchStream tails the live quote feed for the evaluated symbol until the
// context ends.
func watchStream(ctx context.Context, logger *zap.Logger, cfg *config.Config) {
	client := stream.NewClient(cfg.Stream.URL, cfg.Stream.APIKey, []string{cfg.Symbol},
		stream.WithPingInterval(cfg.Stream.PingInterval),
		stream.WithLogger(logger),
	)
	if err := client.Connect(ctx); err != nil {
		logger.Warn("stream unavailable", zap.Error(err))
		return
	}
	defer client.Close()

	quotes, errs := client.Read(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if ok && err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("stream closed", zap.Error(err))
			}
			return
		case quote, ok := <-quotes:
			if !ok {
				return
			}
			logger.Info("quote",
				zap.String("symbol", quote.Symbol),
				zap.String("price", quote.Price.String()),
				zap.Time("ts", quote.TimeStamp),
			)
		}
	}
}
