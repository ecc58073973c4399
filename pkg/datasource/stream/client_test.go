package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func testFeed(t *testing.T, frame string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer func() {
			_ = conn.Close()
		}()

		// First frame must be the subscription.
		var sub map[string]string
		if _, b, err := conn.ReadMessage(); err != nil {
			t.Errorf("read subscribe: %v", err)
			return
		} else if err := json.Unmarshal(b, &sub); err != nil || sub["type"] != "subscribe" {
			t.Errorf("unexpected first frame %s", b)
			return
		}

		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Errorf("write trade: %v", err)
		}
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClientReadsQuotes(t *testing.T) {
	srv := testFeed(t, `{"type":"trade","data":[{"s":"AAPL","p":185.25,"v":100,"t":1704067200000}]}`)
	defer srv.Close()

	client := NewClient(wsURL(srv), "", []string{"AAPL"}, WithPingInterval(time.Minute))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	quotes, errs := client.Read(ctx)
	select {
	case q := <-quotes:
		if q.Symbol != "AAPL" {
			t.Errorf("symbol = %q, want AAPL", q.Symbol)
		}
		if q.Price.String() != "185.25" {
			t.Errorf("price = %s, want 185.25", q.Price)
		}
		if !q.TimeStamp.Equal(time.UnixMilli(1704067200000).UTC()) {
			t.Errorf("timestamp = %s", q.TimeStamp)
		}
	case err := <-errs:
		t.Fatalf("stream error: %v", err)
	case <-ctx.Done():
		t.Fatal("timed out waiting for a quote")
	}
}

func TestClientIgnoresNonTradeFrames(t *testing.T) {
	srv := testFeed(t, `{"type":"ping"}`)
	defer srv.Close()

	client := NewClient(wsURL(srv), "", []string{"AAPL"}, WithPingInterval(time.Minute))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	quotes, _ := client.Read(ctx)
	select {
	case q, ok := <-quotes:
		if ok {
			t.Fatalf("unexpected quote %+v from a non-trade frame", q)
		}
	case <-ctx.Done():
		// nothing arrived, as expected
	}
}
