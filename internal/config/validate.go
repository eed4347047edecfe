package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *ClientConfig) Validate() error {
	if c.Identity.UserID <= 0 {
		return errors.New("identity.user_id is required")
	}
	if c.Identity.Role == "" {
		return errors.New("identity.role is required")
	}

	if c.Server.BaseURL == "" {
		return errors.New("server.base_url is required")
	}
	if _, err := c.WebSocketURL(); err != nil {
		return err
	}

	if c.Reconnect.BaseDelay <= 0 {
		return errors.New("reconnect.base_delay must be > 0")
	}
	if c.Reconnect.Factor < 1 {
		return fmt.Errorf("reconnect.factor must be >= 1, got %g", c.Reconnect.Factor)
	}
	if c.Reconnect.MaxDelay < c.Reconnect.BaseDelay {
		return errors.New("reconnect.max_delay must be >= reconnect.base_delay")
	}
	if c.Reconnect.MaxAttempts < 1 {
		return errors.New("reconnect.max_attempts must be >= 1")
	}

	if c.Heartbeat.Interval <= 0 {
		return errors.New("heartbeat.interval must be > 0")
	}
	if c.Heartbeat.PongTimeout <= 0 {
		return errors.New("heartbeat.pong_timeout must be > 0")
	}
	if c.Heartbeat.PongTimeout >= c.Heartbeat.Interval {
		return errors.New("heartbeat.pong_timeout must be shorter than heartbeat.interval")
	}

	return nil
}
