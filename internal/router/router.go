package router

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Router is the typed publish/subscribe registry. It parses raw inbound
// frames, classifies them, and dispatches synchronously: control frames to
// the bound ControlHandler, data updates additionally to the
// CacheInvalidator, and every frame to its registered subscribers in
// registration order.
//
// Subscriptions are a property of the router, not of any one physical
// socket: they survive across reconnects.
type Router struct {
	logger *slog.Logger
	cache  CacheInvalidator

	mu      sync.RWMutex
	subs    map[MessageType][]subscription
	control ControlHandler

	statsMu sync.Mutex
	stats   RouterStats
}

type subscription struct {
	id string
	fn Handler
}

// NewRouter creates a router. cache may be nil when no application cache is
// wired in.
func NewRouter(cache CacheInvalidator, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		logger: logger,
		cache:  cache,
		subs:   make(map[MessageType][]subscription),
	}
}

// BindControl attaches the connection manager's control hooks.
func (r *Router) BindControl(h ControlHandler) {
	r.mu.Lock()
	r.control = h
	r.mu.Unlock()
}

// Subscribe registers fn for frames of the given type. Multiple subscribers
// per type are permitted. The returned function unsubscribes; it is
// idempotent.
func (r *Router) Subscribe(t MessageType, fn Handler) func() {
	id := uuid.NewString()

	r.mu.Lock()
	r.subs[t] = append(r.subs[t], subscription{id: id, fn: fn})
	r.mu.Unlock()

	r.logger.Debug("subscriber registered", "type", string(t), "subscription_id", id)

	return func() { r.unsubscribe(t, id) }
}

func (r *Router) unsubscribe(t MessageType, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket := r.subs[t]
	for i, sub := range bucket {
		if sub.id == id {
			r.subs[t] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(r.subs[t]) == 0 {
		delete(r.subs, t)
	}
}

// Dispatch parses one raw frame and fans it out. Malformed JSON is logged
// and dropped; the connection stays alive. Dispatch is synchronous within
// the frame-handling call.
func (r *Router) Dispatch(data []byte) {
	r.statsMu.Lock()
	r.stats.FramesReceived++
	r.statsMu.Unlock()

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		r.statsMu.Lock()
		r.stats.ParseErrors++
		r.statsMu.Unlock()
		r.logger.Warn("dropping malformed frame", "error", err)
		return
	}
	env.raw = data

	if !env.Type.Known() {
		r.statsMu.Lock()
		r.stats.UnknownTypes++
		r.statsMu.Unlock()
		r.logger.Debug("frame with unknown type", "type", string(env.Type))
	}

	r.mu.RLock()
	control := r.control
	bucket := make([]subscription, len(r.subs[env.Type]))
	copy(bucket, r.subs[env.Type])
	r.mu.RUnlock()

	// Session state updates before any user dispatch.
	if control != nil {
		switch env.Type {
		case TypeConnectionSuccess:
			control.OnConnectionSuccess(env.ConnectionID)
		case TypeConnectionError:
			code := 0
			if env.Code != nil {
				code = *env.Code
			}
			control.OnConnectionError(env.Message, code)
		case TypePong:
			control.OnPong()
		}
	}

	if r.cache != nil && env.Type.IsDataUpdate() {
		r.cache.NotifyDataUpdate(string(env.Type), env.Raw())
	}

	for _, sub := range bucket {
		r.invoke(sub, &env)
	}
}

// invoke runs one subscriber, isolating panics so siblings still run.
func (r *Router) invoke(sub subscription, env *Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("subscriber panicked",
				"type", string(env.Type),
				"subscription_id", sub.id,
				"panic", rec,
			)
		}
	}()

	sub.fn(env)

	r.statsMu.Lock()
	r.stats.Dispatched++
	r.statsMu.Unlock()
}

// Stats returns current counters.
func (r *Router) Stats() RouterStats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	return r.stats
}
