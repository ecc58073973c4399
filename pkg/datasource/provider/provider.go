// Package provider fetches daily candles from an HTTP market-data API.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/govalues/decimal"

	"github.com/mvracar/augur/pkg/datasource"
	"github.com/mvracar/augur/pkg/market"
)

const componentName = "datasource.provider"

// Client talks to a candle endpoint shaped like the common
// /stock/candle?symbol=X&resolution=D&from=..&to=.. APIs.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client, for tests and custom
// transports.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// candleResponse mirrors the provider wire format: parallel arrays plus a
// status flag, "ok" or "no_data".
type candleResponse struct {
	Status  string    `json:"s"`
	Times   []int64   `json:"t"`
	Opens   []float64 `json:"o"`
	Highs   []float64 `json:"h"`
	Lows    []float64 `json:"l"`
	Closes  []float64 `json:"c"`
	Volumes []float64 `json:"v"`
}

// DailyBars fetches the daily candles for symbol over [from, to]. Candles
// arrive ordered and deduplicated by the provider; any transport, decode or
// status failure maps to datasource.ErrDataUnavailable.
func (c *Client) DailyBars(ctx context.Context, symbol string, from, to time.Time) ([]market.Bar, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("resolution", "D")
	q.Set("from", strconv.FormatInt(from.Unix(), 10))
	q.Set("to", strconv.FormatInt(to.Unix(), 10))
	q.Set("token", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stock/candle?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", datasource.ErrDataUnavailable, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", datasource.ErrDataUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", datasource.ErrDataUnavailable, symbol, resp.StatusCode)
	}

	var body candleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", datasource.ErrDataUnavailable, err)
	}
	if body.Status != "ok" {
		return nil, fmt.Errorf("%w: %s status %q", datasource.ErrDataUnavailable, symbol, body.Status)
	}
	n := len(body.Times)
	if n == 0 || len(body.Opens) != n || len(body.Highs) != n ||
		len(body.Lows) != n || len(body.Closes) != n || len(body.Volumes) != n {
		return nil, fmt.Errorf("%w: %s ragged candle arrays", datasource.ErrDataUnavailable, symbol)
	}

	bars := make([]market.Bar, 0, n)
	for i := 0; i < n; i++ {
		bar, err := buildBar(symbol, body, i)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", datasource.ErrDataUnavailable, err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func buildBar(symbol string, body candleResponse, i int) (market.Bar, error) {
	open, err := decimal.NewFromFloat64(body.Opens[i])
	if err != nil {
		return market.Bar{}, fmt.Errorf("open at %d: %v", i, err)
	}
	high, err := decimal.NewFromFloat64(body.Highs[i])
	if err != nil {
		return market.Bar{}, fmt.Errorf("high at %d: %v", i, err)
	}
	low, err := decimal.NewFromFloat64(body.Lows[i])
	if err != nil {
		return market.Bar{}, fmt.Errorf("low at %d: %v", i, err)
	}
	cls, err := decimal.NewFromFloat64(body.Closes[i])
	if err != nil {
		return market.Bar{}, fmt.Errorf("close at %d: %v", i, err)
	}
	vol, err := decimal.NewFromFloat64(body.Volumes[i])
	if err != nil {
		return market.Bar{}, fmt.Errorf("volume at %d: %v", i, err)
	}

	bar := market.Bar{
		Source:    componentName,
		Symbol:    symbol,
		RunID:     market.GetRunID(),
		TimeStamp: time.Unix(body.Times[i], 0).UTC(),
		Period:    24 * time.Hour,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     cls,
		Volume:    vol,
	}
	return bar, bar.Validate()
}
