package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client owns one physical WebSocket. The Manager replaces the whole Client
// on every reconnect; a Client is never reused after Close.
type Client struct {
	url          string
	dialTimeout  time.Duration
	writeTimeout time.Duration
	logger       *slog.Logger

	conn      *websocket.Conn
	done      chan struct{}
	closeOnce sync.Once

	mu   sync.RWMutex
	open bool

	// Write serialization
	writeMu sync.Mutex
}

// NewClient creates an unconnected client for one dial attempt.
func NewClient(url string, dialTimeout, writeTimeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		url:          url,
		dialTimeout:  dialTimeout,
		writeTimeout: writeTimeout,
		logger:       logger,
		done:         make(chan struct{}),
	}
}

// Dial establishes the WebSocket connection.
func (c *Client) Dial(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.dialTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.open = true
	c.mu.Unlock()

	c.logger.Debug("websocket connected", "url", c.url)
	return nil
}

// IsOpen reports whether the socket currently accepts writes.
func (c *Client) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.open
}

// ReadLoop pumps inbound text frames until the socket dies or Close detaches
// it. onClose fires at most once, with the close code and reason, and never
// fires after Close has detached the socket.
func (c *Client) ReadLoop(onFrame func(data []byte), onClose func(code int, reason string)) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.open = false
			c.mu.Unlock()

			select {
			case <-c.done:
				// Detached: the manager already moved on.
				return
			default:
			}

			code, reason := closeDetails(err)
			onClose(code, reason)
			return
		}

		select {
		case <-c.done:
			return
		default:
		}
		onFrame(data)
	}
}

// closeDetails extracts the wire close code and reason text. Errors that are
// not close frames (dropped TCP, read timeouts) report code -1.
func closeDetails(err error) (int, string) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text
	}
	return -1, err.Error()
}

// Write sends one text frame. Callers serialize through the Sender.
func (c *Client) Write(data []byte) error {
	c.mu.RLock()
	open := c.open
	conn := c.conn
	c.mu.RUnlock()

	if !open || conn == nil {
		return ErrSocketClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Close detaches the read loop before closing the socket, guaranteeing that
// no late callback fires from a superseded connection. Idempotent.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		c.open = false
		conn := c.conn
		c.mu.Unlock()

		if conn != nil {
			conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			conn.Close()
		}
	})
}
