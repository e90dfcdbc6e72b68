// Package feed maintains the upstream token-creation WebSocket subscription.
package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"pumpfun-monitor/internal/observability"
)

// Config configures feed client behavior.
type Config struct {
	// URL is the feed WebSocket endpoint.
	URL string
	// ReconnectDelay is the fixed wait before reconnecting after a close or error.
	ReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is how long a connection may stay silent, pongs included.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// EventBuffer is the capacity of the Events channel.
	EventBuffer int
}

// DefaultConfig returns default feed configuration.
func DefaultConfig() Config {
	return Config{
		ReconnectDelay: 5 * time.Second,
		PingInterval:   30 * time.Second,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		EventBuffer:    1024,
	}
}

// ErrClosed is returned by Run once the client has been closed.
var ErrClosed = errors.New("feed client closed")

// Client subscribes to new-token announcements and decodes every inbound
// message into an Event. It reconnects on its own until closed.
type Client struct {
	cfg    Config
	logger zerolog.Logger
	now    func() time.Time

	conn   *websocket.Conn
	connMu sync.Mutex

	events chan Event

	connected    atomic.Bool
	closed       atomic.Bool
	reconnecting atomic.Bool // a reconnect is already scheduled

	done chan struct{}
	wg   sync.WaitGroup
}

// NewClient creates a feed client. Call Run to connect.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	def := DefaultConfig()
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = def.ReconnectDelay
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = def.PingInterval
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = def.EventBuffer
	}

	return &Client{
		cfg:    cfg,
		logger: logger.With().Str("component", "feed").Logger(),
		now:    time.Now,
		events: make(chan Event, cfg.EventBuffer),
		done:   make(chan struct{}),
	}
}

// Events returns decoded trades and token creations. The channel is
// closed after Close returns.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Connected reports whether a subscription is currently open.
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// Run connects and keeps the subscription alive until ctx is cancelled.
// A failed initial dial is not fatal; it is retried like any other drop.
func (c *Client) Run(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}

	if err := c.connect(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("initial feed connection failed")
		c.scheduleReconnect(ctx)
	}

	select {
	case <-ctx.Done():
	case <-c.done:
	}
	return c.Close()
}

// Close closes the connection and waits for background goroutines.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	c.wg.Wait()
	c.setConnected(false)
	close(c.events)
	return nil
}

// connect dials, subscribes and starts the per-connection goroutines.
func (c *Client) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.closed.Load() {
		return ErrClosed
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := conn.WriteJSON(subscribeNewToken); err != nil {
		conn.Close()
		return fmt.Errorf("write subscribe: %w", err)
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	})

	c.conn = conn
	c.reconnecting.Store(false)
	c.setConnected(true)
	c.logger.Info().Str("url", c.cfg.URL).Msg("subscribed to feed")

	stop := make(chan struct{})

	c.wg.Add(2)
	go c.readLoop(ctx, conn, stop)
	go c.pingLoop(conn, stop)

	return nil
}

// readLoop reads messages until the connection fails, then schedules a reconnect.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, stop chan struct{}) {
	defer c.wg.Done()
	defer close(stop)

	for {
		conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))

		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() || ctx.Err() != nil {
				return
			}
			c.logger.Warn().Err(err).Dur("retry_in", c.cfg.ReconnectDelay).Msg("feed connection lost")
			c.drop(conn)
			c.scheduleReconnect(ctx)
			return
		}

		c.handleMessage(ctx, data)
	}
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *Client) pingLoop(conn *websocket.Conn, stop chan struct{}) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn == conn {
				conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Unblocks readLoop, which owns the reconnect.
					conn.Close()
				}
			}
			c.connMu.Unlock()
		}
	}
}

// drop closes conn if it is still the current connection.
func (c *Client) drop(conn *websocket.Conn) {
	c.connMu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.connMu.Unlock()

	conn.Close()
	c.setConnected(false)
}

// scheduleReconnect arranges a single reconnect after ReconnectDelay.
// Calls made while one is already pending are no-ops.
func (c *Client) scheduleReconnect(ctx context.Context) {
	if c.closed.Load() || c.reconnecting.Swap(true) {
		return
	}
	observability.RecordFeedReconnect()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-time.After(c.cfg.ReconnectDelay):
		}

		if err := c.connect(ctx); err != nil {
			if errors.Is(err, ErrClosed) {
				return
			}
			c.logger.Warn().Err(err).Dur("retry_in", c.cfg.ReconnectDelay).Msg("feed reconnect failed")
			c.reconnecting.Store(false)
			c.scheduleReconnect(ctx)
		}
	}()
}

// handleMessage decodes one message and forwards trades and new tokens.
func (c *Client) handleMessage(ctx context.Context, data []byte) {
	ev, err := Decode(data, c.now().UnixMilli())
	if err != nil {
		observability.RecordFeedMessage("malformed")
		c.logger.Error().Err(err).Msg("dropping malformed feed message")
		return
	}

	observability.RecordFeedMessage(ev.Kind.String())
	if ev.Kind == EventIgnored {
		return
	}

	select {
	case c.events <- ev:
	case <-c.done:
	case <-ctx.Done():
	}
}

func (c *Client) setConnected(v bool) {
	c.connected.Store(v)
	observability.SetFeedConnected(v)
}
