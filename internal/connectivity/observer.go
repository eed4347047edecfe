package connectivity

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Signal is a coarse environment event relevant to connection health.
type Signal int

const (
	// SignalOnline fires when the network becomes reachable.
	SignalOnline Signal = iota
	// SignalOffline fires when the network is lost.
	SignalOffline
	// SignalVisible fires when the host application returns to the
	// foreground after a suspension.
	SignalVisible
)

func (s Signal) String() string {
	switch s {
	case SignalOnline:
		return "online"
	case SignalOffline:
		return "offline"
	case SignalVisible:
		return "visible"
	default:
		return "unknown"
	}
}

// Observer is the registration-only capability interface consumed by the
// connection manager. Each registration returns its own unsubscribe.
type Observer interface {
	OnOnline(fn func()) func()
	OnOffline(fn func()) func()
	OnVisible(fn func()) func()
}

// Hub is the concrete Observer: a signal fan-out that platform integrations
// (or tests) drive through Emit.
type Hub struct {
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[Signal][]entry
}

type entry struct {
	id string
	fn func()
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger: logger,
		subs:   make(map[Signal][]entry),
	}
}

func (h *Hub) OnOnline(fn func()) func()  { return h.on(SignalOnline, fn) }
func (h *Hub) OnOffline(fn func()) func() { return h.on(SignalOffline, fn) }
func (h *Hub) OnVisible(fn func()) func() { return h.on(SignalVisible, fn) }

func (h *Hub) on(s Signal, fn func()) func() {
	id := uuid.NewString()

	h.mu.Lock()
	h.subs[s] = append(h.subs[s], entry{id: id, fn: fn})
	h.mu.Unlock()

	return func() { h.off(s, id) }
}

func (h *Hub) off(s Signal, id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	bucket := h.subs[s]
	for i, e := range bucket {
		if e.id == id {
			h.subs[s] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(h.subs[s]) == 0 {
		delete(h.subs, s)
	}
}

// Emit delivers a signal synchronously to every registered callback.
func (h *Hub) Emit(s Signal) {
	h.mu.RLock()
	bucket := make([]entry, len(h.subs[s]))
	copy(bucket, h.subs[s])
	h.mu.RUnlock()

	h.logger.Debug("connectivity signal", "signal", s.String(), "listeners", len(bucket))
	for _, e := range bucket {
		e.fn()
	}
}
