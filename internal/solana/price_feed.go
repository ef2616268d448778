package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"solana-decision-core/internal/domain"
)

// PriceFeedConfig configures price feed connection behavior.
type PriceFeedConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultPriceFeedConfig returns default price feed configuration.
func DefaultPriceFeedConfig() PriceFeedConfig {
	return PriceFeedConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// PriceHandler receives one price tick for a subscribed mint.
type PriceHandler func(mint domain.Address, price float64)

// PriceFeed streams live prices for held mints over WebSocket. The exit
// monitor depends on these ticks, so the feed reconnects with exponential
// backoff and resubscribes every mint still held.
type PriceFeed struct {
	endpoint string
	config   PriceFeedConfig
	handler  PriceHandler

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	// subs is the desired subscription set, replayed after reconnect.
	subs   map[domain.Address]struct{}
	subsMu sync.Mutex

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

// NewPriceFeed connects to the feed endpoint and starts the read and ping
// loops. Every decoded tick is delivered to handler on the read goroutine.
func NewPriceFeed(ctx context.Context, endpoint string, config *PriceFeedConfig, handler PriceHandler) (*PriceFeed, error) {
	cfg := DefaultPriceFeedConfig()
	if config != nil {
		cfg = *config
	}

	f := &PriceFeed{
		endpoint: endpoint,
		config:   cfg,
		handler:  handler,
		subs:     make(map[domain.Address]struct{}),
		done:     make(chan struct{}),
	}

	if err := f.connect(ctx); err != nil {
		return nil, err
	}

	f.wg.Add(1)
	go f.readLoop()

	f.wg.Add(1)
	go f.pingLoop()

	return f, nil
}

// connect establishes the WebSocket connection.
func (f *PriceFeed) connect(ctx context.Context) error {
	f.connMu.Lock()
	defer f.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return fmt.Errorf("price feed dial: %w", err)
	}

	f.conn = conn
	return nil
}

// Subscribe starts price ticks for a mint. Idempotent.
func (f *PriceFeed) Subscribe(mint domain.Address) error {
	if f.closed.Load() {
		return fmt.Errorf("price feed closed")
	}

	f.subsMu.Lock()
	_, already := f.subs[mint]
	f.subs[mint] = struct{}{}
	f.subsMu.Unlock()
	if already {
		return nil
	}

	return f.writeRequest("priceSubscribe", mint)
}

// Unsubscribe stops price ticks for a mint, typically on position close.
func (f *PriceFeed) Unsubscribe(mint domain.Address) error {
	if f.closed.Load() {
		return fmt.Errorf("price feed closed")
	}

	f.subsMu.Lock()
	_, subscribed := f.subs[mint]
	delete(f.subs, mint)
	f.subsMu.Unlock()
	if !subscribed {
		return nil
	}

	return f.writeRequest("priceUnsubscribe", mint)
}

// Subscriptions returns the current desired mint set.
func (f *PriceFeed) Subscriptions() int {
	f.subsMu.Lock()
	defer f.subsMu.Unlock()
	return len(f.subs)
}

func (f *PriceFeed) writeRequest(method string, mint domain.Address) error {
	req := feedRequest{
		JSONRPC: "2.0",
		ID:      f.requestID.Add(1),
		Method:  method,
		Params:  []string{mint.String()},
	}

	f.connMu.Lock()
	defer f.connMu.Unlock()
	if f.conn == nil {
		// Desired set already updated; the reconnect replay covers it.
		return fmt.Errorf("price feed not connected")
	}

	f.conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
	if err := f.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write %s: %w", method, err)
	}
	return nil
}

// Close shuts down the feed and joins its goroutines.
func (f *PriceFeed) Close() error {
	if f.closed.Swap(true) {
		return nil
	}

	close(f.done)

	f.connMu.Lock()
	if f.conn != nil {
		f.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		f.conn.Close()
	}
	f.connMu.Unlock()

	f.wg.Wait()
	return nil
}

// readLoop reads ticks and drives reconnection on errors.
func (f *PriceFeed) readLoop() {
	defer f.wg.Done()

	reconnectDelay := f.config.ReconnectDelay

	for !f.closed.Load() {
		f.connMu.Lock()
		conn := f.conn
		f.connMu.Unlock()

		if conn == nil {
			select {
			case <-f.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if f.closed.Load() {
				return
			}

			if !f.reconnecting.Swap(true) {
				go f.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > f.config.MaxReconnectDelay {
				reconnectDelay = f.config.MaxReconnectDelay
			}

			select {
			case <-f.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		reconnectDelay = f.config.ReconnectDelay

		f.handleMessage(message)
	}
}

// reconnect redials and replays the desired subscription set.
func (f *PriceFeed) reconnect(delay time.Duration) {
	defer f.reconnecting.Store(false)

	if f.closed.Load() {
		return
	}

	select {
	case <-f.done:
		return
	case <-time.After(delay):
	}

	f.connMu.Lock()
	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
	f.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := f.connect(ctx); err != nil {
		// Will retry on next read error.
		return
	}

	f.resubscribeAll()
}

// resubscribeAll replays subscriptions after a reconnect.
func (f *PriceFeed) resubscribeAll() {
	f.subsMu.Lock()
	mints := make([]domain.Address, 0, len(f.subs))
	for mint := range f.subs {
		mints = append(mints, mint)
	}
	f.subsMu.Unlock()

	for _, mint := range mints {
		if err := f.writeRequest("priceSubscribe", mint); err != nil {
			log.Warn().Str("mint", mint.Short()).Err(err).Msg("price feed resubscribe failed")
		}
	}
}

// handleMessage decodes one feed message and dispatches ticks.
func (f *PriceFeed) handleMessage(message []byte) {
	var notif feedNotification
	if err := json.Unmarshal(message, &notif); err != nil || notif.Method != "priceNotification" {
		return
	}
	if notif.Params == nil {
		return
	}

	mint, err := domain.AddressFromBase58(notif.Params.Value.Mint)
	if err != nil || notif.Params.Value.Price <= 0 {
		return
	}

	f.subsMu.Lock()
	_, wanted := f.subs[mint]
	f.subsMu.Unlock()

	// Late ticks after unsubscribe are dropped.
	if wanted && f.handler != nil {
		f.handler(mint, notif.Params.Value.Price)
	}
}

// pingLoop keeps the connection alive.
func (f *PriceFeed) pingLoop() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			f.connMu.Lock()
			if f.conn != nil {
				f.conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
				if err := f.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Connection might be dead, reader will handle reconnect
				}
			}
			f.connMu.Unlock()
		}
	}
}

// Feed message types.

type feedRequest struct {
	JSONRPC string   `json:"jsonrpc"`
	ID      uint64   `json:"id"`
	Method  string   `json:"method"`
	Params  []string `json:"params,omitempty"`
}

type feedNotification struct {
	JSONRPC string                  `json:"jsonrpc"`
	Method  string                  `json:"method"`
	Params  *feedNotificationParams `json:"params"`
}

type feedNotificationParams struct {
	Value feedPriceValue `json:"value"`
}

type feedPriceValue struct {
	Mint  string  `json:"mint"`
	Price float64 `json:"price"`
}
