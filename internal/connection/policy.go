package connection

import (
	"time"

	"github.com/cenkalti/backoff/v5"
)

// reconnectPolicy tracks the retry budget for one outage. The attempt
// counter increments on every failed connection attempt and resets only on
// a successful connect. Delays follow min(base * factor^(attempt-1), max).
type reconnectPolicy struct {
	cfg     ReconnectConfig
	exp     *backoff.ExponentialBackOff
	attempt int
}

func newReconnectPolicy(cfg ReconnectConfig) *reconnectPolicy {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = cfg.BaseDelay
	exp.Multiplier = cfg.Factor
	exp.MaxInterval = cfg.MaxDelay
	// Zero jitter: the schedule is deterministic.
	exp.RandomizationFactor = 0
	exp.Reset()
	return &reconnectPolicy{cfg: cfg, exp: exp}
}

// NextDelay records a failed attempt. It returns the wait before the next
// attempt, or false when the retry budget is exhausted and the connection
// must be declared failed.
func (p *reconnectPolicy) NextDelay() (time.Duration, bool) {
	p.attempt++
	if p.attempt >= p.cfg.MaxAttempts {
		return 0, false
	}
	return p.exp.NextBackOff(), true
}

// Attempt returns the number of failed attempts in the current outage.
func (p *reconnectPolicy) Attempt() int {
	return p.attempt
}

// Reset restores the full retry budget.
func (p *reconnectPolicy) Reset() {
	p.attempt = 0
	p.exp.Reset()
}
