package config

import "time"

// Default values for optional configuration fields. The reconnect and
// heartbeat constants match the product's reference deployment.
const (
	DefaultWSPath        = "/ws"
	DefaultDialTimeout   = 10 * time.Second
	DefaultWriteTimeout  = 5 * time.Second
	DefaultBaseDelay     = 5 * time.Second
	DefaultFactor        = 2.0
	DefaultMaxDelay      = 60 * time.Second
	DefaultMaxAttempts   = 10
	DefaultInterval      = 60 * time.Second
	DefaultPongTimeout   = 15 * time.Second
	DefaultProbeInterval = 30 * time.Second
)

func (c *ClientConfig) applyDefaults() {
	// Server defaults
	if c.Server.WSPath == "" {
		c.Server.WSPath = DefaultWSPath
	}
	if c.Server.DialTimeout == 0 {
		c.Server.DialTimeout = DefaultDialTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}

	// Reconnect defaults
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

	// Heartbeat defaults
	if c.Heartbeat.Interval == 0 {
		c.Heartbeat.Interval = DefaultInterval
	}
	if c.Heartbeat.PongTimeout == 0 {
		c.Heartbeat.PongTimeout = DefaultPongTimeout
	}

	// Connectivity defaults
	if c.Connectivity.ProbeInterval == 0 {
		c.Connectivity.ProbeInterval = DefaultProbeInterval
	}
}
