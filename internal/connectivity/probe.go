package connectivity

import (
	"log/slog"
	"net"
	"sync"
	"time"
)

const (
	// DefaultProbeInterval is how often the prober re-checks reachability.
	DefaultProbeInterval = 30 * time.Second
	probeDialTimeout     = 3 * time.Second
)

// Probe periodically checks TCP reachability of an address and emits
// online/offline edges into a Hub. It is an optional signal source for
// environments without platform connectivity events.
type Probe struct {
	hub      *Hub
	addr     string
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	online bool
	first  bool
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewProbe(hub *Hub, addr string, interval time.Duration, logger *slog.Logger) *Probe {
	if logger == nil {
		logger = slog.Default()
	}
	if interval == 0 {
		interval = DefaultProbeInterval
	}
	return &Probe{
		hub:      hub,
		addr:     addr,
		interval: interval,
		logger:   logger,
		first:    true,
		done:     make(chan struct{}),
	}
}

// Start begins probing in the background. The first check runs immediately.
func (p *Probe) Start() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		p.check()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-p.done:
				return
			case <-ticker.C:
				p.check()
			}
		}
	}()
}

// Stop halts probing. No signal is emitted after Stop returns.
func (p *Probe) Stop() {
	close(p.done)
	p.wg.Wait()
}

// check dials the probe address and emits a signal on every edge. Only
// transitions are reported; a steady state stays silent.
func (p *Probe) check() {
	conn, err := net.DialTimeout("tcp", p.addr, probeDialTimeout)
	reachable := err == nil
	if conn != nil {
		conn.Close()
	}

	p.mu.Lock()
	changed := p.first || reachable != p.online
	p.first = false
	p.online = reachable
	p.mu.Unlock()

	if !changed {
		return
	}

	if reachable {
		p.logger.Info("network reachable", "addr", p.addr)
		p.hub.Emit(SignalOnline)
	} else {
		p.logger.Warn("network unreachable", "addr", p.addr, "error", err)
		p.hub.Emit(SignalOffline)
	}
}
