package config

import (
	"fmt"
	"net/url"
	"time"
)

// ClientConfig is the root configuration for a realtime client instance.
type ClientConfig struct {
	Identity     IdentityConfig     `yaml:"identity"`
	Server       ServerConfig       `yaml:"server"`
	Reconnect    ReconnectConfig    `yaml:"reconnect"`
	Heartbeat    HeartbeatConfig    `yaml:"heartbeat"`
	Connectivity ConnectivityConfig `yaml:"connectivity"`
}

// IdentityConfig identifies the user this client connects as.
type IdentityConfig struct {
	UserID int64  `yaml:"user_id"`
	Role   string `yaml:"role"`
}

// ServerConfig locates the realtime endpoint.
type ServerConfig struct {
	BaseURL      string        `yaml:"base_url"` // http(s) origin of the product
	WSPath       string        `yaml:"ws_path"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// ReconnectConfig is the capped exponential backoff schedule.
type ReconnectConfig struct {
	BaseDelay   time.Duration `yaml:"base_delay"`
	Factor      float64       `yaml:"factor"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// HeartbeatConfig controls liveness probing.
type HeartbeatConfig struct {
	Interval    time.Duration `yaml:"interval"`
	PongTimeout time.Duration `yaml:"pong_timeout"`
}

// ConnectivityConfig controls the optional reachability prober.
type ConnectivityConfig struct {
	ProbeAddr     string        `yaml:"probe_addr"` // host:port, empty disables probing
	ProbeInterval time.Duration `yaml:"probe_interval"`
}

// WebSocketURL derives the realtime endpoint from the configured origin:
// wss: iff the origin is https:, ws: for http:, with the configured path.
func (c *ClientConfig) WebSocketURL() (string, error) {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse server.base_url: %w", err)
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	case "ws", "wss":
		// Already a websocket URL.
	default:
		return "", fmt.Errorf("server.base_url has unsupported scheme %q", u.Scheme)
	}

	u.Path = c.Server.WSPath
	return u.String(), nil
}
