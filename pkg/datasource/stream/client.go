// Package stream consumes live trade quotes over a websocket feed.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/govalues/decimal"
	"go.uber.org/zap"

	"github.com/mvracar/augur/pkg/market"
)

const componentName = "datasource.stream"

// Client subscribes to trade messages for a set of symbols. The feed speaks
// the common {"type":"trade","data":[{s,p,v,t}]} frame format.
type Client struct {
	url          string
	apiKey       string
	symbols      []string
	pingInterval time.Duration
	logger       *zap.Logger

	conn *websocket.Conn
}

type Option func(*Client)

// WithPingInterval overrides the keepalive ping period.
func WithPingInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pingInterval = d
		}
	}
}

// WithLogger attaches a logger; the default discards.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(url, apiKey string, symbols []string, opts ...Option) *Client {
	c := &Client{
		url:          url,
		apiKey:       apiKey,
		symbols:      symbols,
		pingInterval: 30 * time.Second,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials the feed and subscribes every configured symbol.
func (c *Client) Connect(ctx context.Context) error {
	u := c.url
	if c.apiKey != "" {
		u = fmt.Sprintf("%s?token=%s", c.url, c.apiKey)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("stream connect: %w", err)
	}
	c.conn = conn
	c.logger.Info("stream connected", zap.String("url", c.url))

	for _, s := range c.symbols {
		msg := map[string]string{"type": "subscribe", "symbol": s}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
		c.logger.Info("stream subscribed", zap.String("symbol", s))
	}
	return nil
}

func (c *Client) Close() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

type tradeData struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type tradeMessage struct {
	Type string      `json:"type"`
	Data []tradeData `json:"data"`
}

// Read streams quotes and a terminal error. Both channels close when the
// context ends or the connection drops; quotes are dropped, not blocked on,
// under consumer backpressure.
func (c *Client) Read(ctx context.Context) (<-chan market.Quote, <-chan error) {
	quotes := make(chan market.Quote, 1024)
	errs := make(chan error, 1)

	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	go func() {
		defer close(quotes)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if c.conn == nil {
				errs <- fmt.Errorf("stream not connected")
				return
			}
			_, b, err := c.conn.ReadMessage()
			if err != nil {
				errs <- fmt.Errorf("stream read: %w", err)
				return
			}

			var msg tradeMessage
			if err := json.Unmarshal(b, &msg); err != nil || msg.Type != "trade" {
				continue
			}
			for _, d := range msg.Data {
				quote, err := toQuote(d)
				if err != nil {
					c.logger.Warn("dropping malformed trade",
						zap.String("symbol", d.S), zap.Error(err))
					continue
				}
				select {
				case quotes <- quote:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return quotes, errs
}

func toQuote(d tradeData) (market.Quote, error) {
	price, err := decimal.NewFromFloat64(d.P)
	if err != nil {
		return market.Quote{}, fmt.Errorf("price: %w", err)
	}
	volume, err := decimal.NewFromFloat64(d.V)
	if err != nil {
		return market.Quote{}, fmt.Errorf("volume: %w", err)
	}
	return market.Quote{
		Source:    componentName,
		Symbol:    d.S,
		RunID:     market.GetRunID(),
		TimeStamp: time.UnixMilli(d.T).UTC(),
		Price:     price,
		Volume:    volume,
	}, nil
}
