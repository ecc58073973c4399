// Package duckdb persists daily bars in a DuckDB file, one table per
// symbol.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/govalues/decimal"

	"github.com/mvracar/augur/pkg/market"
)

const componentName = "datasource.duckdb"

type Store struct {
	dataSourceName string
	db             *sql.DB
}

func NewStore(dataSourceName string) *Store {
	return &Store{
		dataSourceName: dataSourceName,
	}
}

func (s *Store) Connect() error {
	db, err := sql.Open("duckdb", s.dataSourceName)
	if err != nil {
		return fmt.Errorf("sql.Open: %v", err)
	}
	s.db = db
	return nil
}

func (s *Store) Close() {
	_ = s.db.Close()
}

// EnsureSchema creates the bar table for a symbol when missing.
func (s *Store) EnsureSchema(ctx context.Context, symbol string) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s_bars (
		ts TIMESTAMP PRIMARY KEY,
		open DOUBLE, high DOUBLE, low DOUBLE, close DOUBLE, volume DOUBLE
	)`, symbol)

	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("error creating schema for %s: %w", symbol, err)
	}
	return nil
}

// WriteBars appends bars for a symbol inside one transaction.
func (s *Store) WriteBars(ctx context.Context, symbol string, bars []market.Bar) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	stmt := fmt.Sprintf(`INSERT OR REPLACE INTO %s_bars (ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?)`, symbol)

	for _, bar := range bars {
		open, _ := bar.Open.Float64()
		high, _ := bar.High.Float64()
		low, _ := bar.Low.Float64()
		cls, _ := bar.Close.Float64()
		vol, _ := bar.Volume.Float64()

		if _, err := tx.ExecContext(ctx, stmt, bar.TimeStamp, open, high, low, cls, vol); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("error inserting bar at %s: %w", bar.TimeStamp, err)
		}
	}
	return tx.Commit()
}

// LoadBars streams stored bars for a symbol through handler in timestamp
// order.
func (s *Store) LoadBars(ctx context.Context, symbol string, from, to time.Time, handler func(bar market.Bar) error) error {

	query := fmt.Sprintf(`SELECT ts, open, high, low, close, volume FROM %s_bars
		WHERE ts BETWEEN ? AND ? ORDER BY ts`, symbol)

	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return fmt.Errorf("error preparing query: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	for rows.Next() {
		var ts time.Time
		var open, high, low, cls, vol float64
		if err := rows.Scan(&ts, &open, &high, &low, &cls, &vol); err != nil {
			return fmt.Errorf("error scanning row: %w", err)
		}

		bar, err := toBar(symbol, ts, open, high, low, cls, vol)
		if err != nil {
			return fmt.Errorf("error converting bar at %s: %w", ts, err)
		}
		if err := handler(bar); err != nil {
			return fmt.Errorf("error processing bar: %w", err)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error scanning rows: %w", err)
	}

	return nil
}

func toBar(symbol string, ts time.Time, open, high, low, cls, vol float64) (market.Bar, error) {
	o, err := decimal.NewFromFloat64(open)
	if err != nil {
		return market.Bar{}, err
	}
	h, err := decimal.NewFromFloat64(high)
	if err != nil {
		return market.Bar{}, err
	}
	l, err := decimal.NewFromFloat64(low)
	if err != nil {
		return market.Bar{}, err
	}
	c, err := decimal.NewFromFloat64(cls)
	if err != nil {
		return market.Bar{}, err
	}
	v, err := decimal.NewFromFloat64(vol)
	if err != nil {
		return market.Bar{}, err
	}

	return market.Bar{
		Source:    componentName,
		Symbol:    symbol,
		RunID:     market.GetRunID(),
		TimeStamp: ts,
		Period:    24 * time.Hour,
		Open:      o,
		High:      h,
		Low:       l,
		Close:     c,
		Volume:    v,
	}, nil
}
