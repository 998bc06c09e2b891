package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

// Client is a WebSocket transport with exponential-backoff reconnect.
type Client struct {
	url    string
	logger *slog.Logger

	mu      sync.Mutex
	writeMu sync.Mutex
	conn    *websocket.Conn
	status  Status
	closed  bool
	cancel  context.CancelFunc

	listeners *listeners
}

// NewClient creates a WebSocket transport for the given URL
// (ws://host/sessions/{id}/ws?user={id}).
func NewClient(url string, logger *slog.Logger) *Client {
	return &Client{
		url:       url,
		logger:    logger,
		status:    StatusOffline,
		listeners: newListeners(),
	}
}

// Connect dials the server, retrying with exponential backoff until the
// context is canceled, then starts the read loop.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.status = StatusSyncing
	ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	if err := c.dial(ctx); err != nil {
		c.mu.Lock()
		c.status = StatusOffline
		c.mu.Unlock()
		return err
	}

	go c.readLoop(ctx)
	return nil
}

// Send transmits an envelope over the socket.
func (c *Client) Send(env Envelope) error {
	c.mu.Lock()
	conn := c.conn
	status := c.status
	c.mu.Unlock()

	if status != StatusConnected || conn == nil {
		return ErrNotConnected
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteJSON(env); err != nil {
		return fmt.Errorf("writing envelope: %w", err)
	}
	return nil
}

// On registers a handler for an event type.
func (c *Client) On(eventType EventType, fn Handler) func() {
	return c.listeners.add(eventType, fn)
}

// Status reports the current connection state.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Close tears the connection down and stops reconnecting.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.status = StatusOffline
	if c.cancel != nil {
		c.cancel()
	}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}

	c.listeners.dispatch(Envelope{Type: EventDisconnected, SentAt: time.Now()})
	return nil
}

func (c *Client) dial(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = 0 // retry until the context is done

	operation := func() error {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if c.logger != nil {
				c.logger.Debug("dial failed, will retry", "url", c.url, "error", err)
			}
			return err
		}

		c.mu.Lock()
		c.conn = conn
		c.status = StatusConnected
		c.mu.Unlock()
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return fmt.Errorf("dialing %s: %w", c.url, err)
	}

	c.listeners.dispatch(Envelope{Type: EventConnected, SentAt: time.Now()})
	return nil
}

func (c *Client) readLoop(ctx context.Context) {
	for {
		c.mu.Lock()
		conn := c.conn
		closed := c.closed
		c.mu.Unlock()
		if closed || conn == nil {
			return
		}

		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			c.mu.Lock()
			closed := c.closed
			c.status = StatusSyncing
			c.mu.Unlock()
			if closed || ctx.Err() != nil {
				return
			}

			if c.logger != nil {
				c.logger.Warn("connection lost, reconnecting", "error", err)
			}
			if err := c.dial(ctx); err != nil {
				c.mu.Lock()
				c.status = StatusOffline
				c.mu.Unlock()
				return
			}
			continue
		}

		c.listeners.dispatch(env)
	}
}
