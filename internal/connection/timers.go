package connection

import (
	"sync"
	"time"
)

// Timers owns the manager's three timing resources: the reconnect timer,
// the heartbeat interval and the pong timeout. They are released as a unit
// via StopAll, so no interval can leak across reconnect cycles.
type Timers struct {
	mu            sync.Mutex
	reconnect     *time.Timer
	heartbeat     *time.Ticker
	heartbeatDone chan struct{}
	pong          *time.Timer
}

func NewTimers() *Timers {
	return &Timers{}
}

// ScheduleReconnect arms a single-shot timer, replacing any pending one.
func (t *Timers) ScheduleReconnect(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.reconnect != nil {
		t.reconnect.Stop()
	}
	t.reconnect = time.AfterFunc(d, fn)
}

// CancelReconnect stops the pending reconnect timer, if any.
func (t *Timers) CancelReconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.reconnect != nil {
		t.reconnect.Stop()
		t.reconnect = nil
	}
}

// StartHeartbeat runs fn every interval until StopHeartbeat or StopAll.
// A previous heartbeat, if any, is stopped first.
func (t *Timers) StartHeartbeat(interval time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopHeartbeatLocked()

	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	t.heartbeat = ticker
	t.heartbeatDone = done

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				// A tick can already be sitting in the channel when the
				// heartbeat is stopped; drop it instead of beating late.
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()
}

// StopHeartbeat stops the heartbeat interval.
func (t *Timers) StopHeartbeat() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopHeartbeatLocked()
}

func (t *Timers) stopHeartbeatLocked() {
	if t.heartbeat != nil {
		t.heartbeat.Stop()
		t.heartbeat = nil
	}
	if t.heartbeatDone != nil {
		close(t.heartbeatDone)
		t.heartbeatDone = nil
	}
}

// ArmPongTimeout arms the dead-connection deadline. A deadline already
// pending is kept: only a matching pong (DisarmPongTimeout) or a teardown
// (StopAll) clears it, so a later ping cannot push an unanswered ping's
// deadline out.
func (t *Timers) ArmPongTimeout(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pong != nil {
		return
	}
	t.pong = time.AfterFunc(d, fn)
}

// DisarmPongTimeout cancels the pending pong deadline, if any.
func (t *Timers) DisarmPongTimeout() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pong != nil {
		t.pong.Stop()
		t.pong = nil
	}
}

// StopAll releases every timing resource. Idempotent, safe on every exit
// path.
func (t *Timers) StopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.reconnect != nil {
		t.reconnect.Stop()
		t.reconnect = nil
	}
	t.stopHeartbeatLocked()
	if t.pong != nil {
		t.pong.Stop()
		t.pong = nil
	}
}
