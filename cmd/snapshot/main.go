// Command snapshot pulls daily bars from the HTTP provider and persists
// them to the DuckDB store and the binary bar cache, so evaluation runs can
// replay them offline.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/mvracar/augur/internal/dbg"
	"github.com/mvracar/augur/pkg/config"
	"github.com/mvracar/augur/pkg/datasource/duckdb"
	"github.com/mvracar/augur/pkg/datasource/historical"
	"github.com/mvracar/augur/pkg/datasource/provider"
	"github.com/mvracar/augur/pkg/market"
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

	if err := snapshot(ctx, logger, cfg); err != nil {
		logger.Fatal("snapshot failed", zap.Error(err))
	}
	logger.Info("done")
}

func snapshot(ctx context.Context, logger *zap.Logger, cfg *config.Config) error {
	client := provider.NewClient(cfg.Data.Provider.BaseURL, cfg.Data.Provider.APIKey)
	bars, err := client.DailyBars(ctx, cfg.Symbol, cfg.Data.From, cfg.Data.To)
	if err != nil {
		return err
	}
	logger.Info("bars fetched",
		zap.String("symbol", cfg.Symbol),
		zap.Int("count", len(bars)),
	)

	if err := writeStore(ctx, cfg, bars); err != nil {
		return err
	}
	logger.Info("store updated", zap.String("path", cfg.Data.DuckDB.Path))

	cachePath := cfg.Data.Cache.Path
	if cachePath == "" {
		cachePath = filepath.Join(cfg.Output.Dir, cfg.Symbol+".bin")
	}
	if err := writeCache(cachePath, bars); err != nil {
		return err
	}
	logger.Info("cache written", zap.String("path", cachePath))

	return nil
}

func writeStore(ctx context.Context, cfg *config.Config, bars []market.Bar) error {
	store := duckdb.NewStore(cfg.Data.DuckDB.Path)
	if err := store.Connect(); err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx, cfg.Symbol); err != nil {
		return err
	}
	return store.WriteBars(ctx, cfg.Symbol, bars)
}

func writeCache(path string, bars []market.Bar) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := historical.WriteBars(f, bars); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}
