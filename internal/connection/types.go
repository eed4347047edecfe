package connection

import (
	"errors"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Errors
var (
	ErrSocketClosed = errors.New("socket is not open")
)

// State is the connection lifecycle state. Exactly one value holds at any
// instant; state listeners observe every transition synchronously.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session tracks what the server has acknowledged about the current
// connection. ConnectionID is assigned only by a connectionSuccess frame
// and cleared on every disconnect. Authenticated can only be true while
// the manager is connected.
type Session struct {
	ConnectionID  string
	Authenticated bool
}

// Config holds everything the Manager needs to run one logical connection.
type Config struct {
	URL    string // WebSocket URL (ws:// or wss://)
	UserID int64  // identity sent in the opening handshake
	Role   string

	DialTimeout  time.Duration
	WriteTimeout time.Duration

	HeartbeatInterval time.Duration // how often a ping frame goes out
	PongTimeout       time.Duration // max wait for the matching pong

	Reconnect ReconnectConfig
}

// ReconnectConfig is the capped exponential backoff policy.
type ReconnectConfig struct {
	BaseDelay   time.Duration
	Factor      float64
	MaxDelay    time.Duration
	MaxAttempts int
}

// Default policy and timing constants.
const (
	DefaultDialTimeout       = 10 * time.Second
	DefaultWriteTimeout      = 5 * time.Second
	DefaultHeartbeatInterval = 60 * time.Second
	DefaultPongTimeout       = 15 * time.Second
	DefaultBaseDelay         = 5 * time.Second
	DefaultFactor            = 2.0
	DefaultMaxDelay          = 60 * time.Second
	DefaultMaxAttempts       = 10
)

func (c Config) withDefaults() Config {
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.PongTimeout == 0 {
		c.PongTimeout = DefaultPongTimeout
	}
	if c.Reconnect.BaseDelay == 0 {
		c.Reconnect.BaseDelay = DefaultBaseDelay
	}
	if c.Reconnect.Factor == 0 {
		c.Reconnect.Factor = DefaultFactor
	}
	if c.Reconnect.MaxDelay == 0 {
		c.Reconnect.MaxDelay = DefaultMaxDelay
	}
	if c.Reconnect.MaxAttempts == 0 {
		c.Reconnect.MaxAttempts = DefaultMaxAttempts
	}
	return c
}

// ManagerStats provides counters about the manager's activity.
type ManagerStats struct {
	Dials          int64
	Reconnects     int64
	HeartbeatsSent int64
	PongsReceived  int64
	FramesReceived int64
}

// Server-assigned close codes that mean the session is no longer valid.
const (
	closeAuthRangeStart = 4001
	closeAuthRangeEnd   = 4003
)

var authReasonMarkers = []string{
	"authentication",
	"unauthorized",
	"session expired",
	"invalid session",
}

// IsAuthFailure classifies a close event or server-reported connection
// error. Auth failures are never retried; the session is terminated and the
// logout collaborator takes over. Everything else is treated as transient.
func IsAuthFailure(code int, reason string) bool {
	switch code {
	case websocket.ClosePolicyViolation, websocket.CloseUnsupportedData:
		return true
	case 401:
		return true
	}
	if code >= closeAuthRangeStart && code <= closeAuthRangeEnd {
		return true
	}
	reason = strings.ToLower(reason)
	for _, marker := range authReasonMarkers {
		if strings.Contains(reason, marker) {
			return true
		}
	}
	return false
}
