package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"solana-decision-core/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func testFeedMint(t *testing.T) domain.Address {
	t.Helper()
	addr, err := domain.AddressFromBase58("So11111111111111111111111111111111111111112")
	if err != nil {
		t.Fatalf("parse mint: %v", err)
	}
	return addr
}

type tick struct {
	mint  domain.Address
	price float64
}

func TestPriceFeed_SubscribeDeliversTicks(t *testing.T) {
	mint := testFeedMint(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// Read the subscribe request.
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req feedRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			t.Errorf("unmarshal request: %v", err)
			return
		}
		if req.Method != "priceSubscribe" {
			t.Errorf("expected priceSubscribe, got %s", req.Method)
			return
		}
		if len(req.Params) != 1 || req.Params[0] != mint.String() {
			t.Errorf("unexpected params: %v", req.Params)
			return
		}

		// Push one tick.
		notif := feedNotification{
			JSONRPC: "2.0",
			Method:  "priceNotification",
			Params: &feedNotificationParams{
				Value: feedPriceValue{Mint: mint.String(), Price: 1.5e-6},
			},
		}
		if err := conn.WriteJSON(notif); err != nil {
			return
		}

		// Hold the connection open.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	ticks := make(chan tick, 10)
	feed, err := NewPriceFeed(context.Background(), wsURL, nil, func(mint domain.Address, price float64) {
		ticks <- tick{mint: mint, price: price}
	})
	if err != nil {
		t.Fatalf("NewPriceFeed: %v", err)
	}
	defer feed.Close()

	if err := feed.Subscribe(mint); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if got := feed.Subscriptions(); got != 1 {
		t.Errorf("Subscriptions() = %d, want 1", got)
	}

	select {
	case got := <-ticks:
		if got.mint != mint {
			t.Errorf("tick mint = %s, want %s", got.mint, mint)
		}
		if got.price != 1.5e-6 {
			t.Errorf("tick price = %g, want 1.5e-6", got.price)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no tick received")
	}
}

func TestPriceFeed_UnsubscribedTicksDropped(t *testing.T) {
	mint := testFeedMint(t)

	ready := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Push a tick the client never subscribed to.
		notif := feedNotification{
			JSONRPC: "2.0",
			Method:  "priceNotification",
			Params: &feedNotificationParams{
				Value: feedPriceValue{Mint: mint.String(), Price: 2e-6},
			},
		}
		if err := conn.WriteJSON(notif); err != nil {
			return
		}
		close(ready)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	ticks := make(chan tick, 10)
	feed, err := NewPriceFeed(context.Background(), wsURL, nil, func(mint domain.Address, price float64) {
		ticks <- tick{mint: mint, price: price}
	})
	if err != nil {
		t.Fatalf("NewPriceFeed: %v", err)
	}
	defer feed.Close()

	<-ready

	select {
	case got := <-ticks:
		t.Errorf("unexpected tick for unsubscribed mint: %+v", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestPriceFeed_SubscribeIdempotent(t *testing.T) {
	mint := testFeedMint(t)

	subscribes := make(chan string, 10)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req feedRequest
			if json.Unmarshal(msg, &req) == nil {
				subscribes <- req.Method
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	feed, err := NewPriceFeed(context.Background(), wsURL, nil, nil)
	if err != nil {
		t.Fatalf("NewPriceFeed: %v", err)
	}
	defer feed.Close()

	if err := feed.Subscribe(mint); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := feed.Subscribe(mint); err != nil {
		t.Fatalf("Subscribe again: %v", err)
	}

	select {
	case method := <-subscribes:
		if method != "priceSubscribe" {
			t.Errorf("method = %s", method)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no subscribe request seen")
	}

	select {
	case method := <-subscribes:
		t.Errorf("duplicate request sent: %s", method)
	case <-time.After(200 * time.Millisecond):
	}

	if err := feed.Unsubscribe(mint); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	select {
	case method := <-subscribes:
		if method != "priceUnsubscribe" {
			t.Errorf("method = %s, want priceUnsubscribe", method)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no unsubscribe request seen")
	}
	if got := feed.Subscriptions(); got != 0 {
		t.Errorf("Subscriptions() = %d, want 0", got)
	}
}
