package connection

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/formpulse/realtime-client/internal/connectivity"
	"github.com/formpulse/realtime-client/internal/router"
)

// AuthFailureHandler is told when the server revokes the session. It is
// expected to terminate the session (logout, redirect); the transport never
// retries after calling it.
type AuthFailureHandler interface {
	OnAuthenticationFailure(reason string)
}

// AuthFailureFunc adapts a plain function to AuthFailureHandler.
type AuthFailureFunc func(reason string)

func (f AuthFailureFunc) OnAuthenticationFailure(reason string) { f(reason) }

// Manager owns the single physical WebSocket and drives the connection
// state machine: heartbeat liveness, capped exponential backoff recovery,
// auth-failure classification, and environment-driven reconnection. It is
// constructed once per application session; subscriptions and state
// listeners survive across reconnects.
type Manager struct {
	cfg    Config
	logger *slog.Logger
	router *router.Router
	auth   AuthFailureHandler

	timers *Timers
	sender *Sender

	mu      sync.Mutex
	state   State
	session Session
	client  *Client
	// gen numbers each physical socket; callbacks from a superseded
	// generation are ignored, so a replaced socket can never mutate state.
	gen       uint64
	policy    *reconnectPolicy
	listeners []stateListener
	unbind    []func()

	statsMu sync.Mutex
	stats   ManagerStats
}

type stateListener struct {
	id string
	fn func(State)
}

// NewManager wires the manager into the router's control hooks. auth may be
// nil when no logout collaborator is present.
func NewManager(cfg Config, r *router.Router, auth AuthFailureHandler, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()

	m := &Manager{
		cfg:    cfg,
		logger: logger,
		router: r,
		auth:   auth,
		timers: NewTimers(),
		sender: NewSender(logger),
		state:  StateDisconnected,
		policy: newReconnectPolicy(cfg.Reconnect),
	}
	r.BindControl(m)
	return m
}

// BindConnectivity subscribes the manager to environment signals: a
// fresh-network reconnect on online, a hold on offline, and a
// check-and-revive on visible.
func (m *Manager) BindConnectivity(obs connectivity.Observer) {
	unbind := []func(){
		obs.OnOnline(m.onOnline),
		obs.OnOffline(m.onOffline),
		obs.OnVisible(m.onVisible),
	}

	m.mu.Lock()
	m.unbind = append(m.unbind, unbind...)
	m.mu.Unlock()
}

// Connect opens a new physical connection and returns immediately. It is
// idempotent: a no-op while an attempt is in flight or a socket is open.
func (m *Manager) Connect() {
	m.mu.Lock()
	if m.state == StateConnecting || m.state == StateConnected {
		m.mu.Unlock()
		return
	}
	m.timers.CancelReconnect()
	m.gen++
	gen := m.gen
	subs := m.transitionLocked(StateConnecting)
	m.mu.Unlock()

	m.notify(subs, StateConnecting)
	go m.dial(gen)
}

// Disconnect detaches the socket's handlers before closing it, cancels all
// timers, and resets the session and retry budget. Safe to call in any
// state, including mid-connect; no further callback fires from the
// superseded socket or timers.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.gen++
	m.timers.StopAll()
	m.teardownLocked()
	m.policy.Reset()
	subs := m.transitionLocked(StateDisconnected)
	m.mu.Unlock()

	m.notify(subs, StateDisconnected)
}

// Close releases the manager at application teardown.
func (m *Manager) Close() {
	m.mu.Lock()
	unbind := m.unbind
	m.unbind = nil
	m.mu.Unlock()

	for _, fn := range unbind {
		fn()
	}
	m.Disconnect()
}

// Send pushes one outbound message through the guarded write path. Returns
// false, without error, when the socket is not open.
func (m *Manager) Send(message any) bool {
	return m.sender.Send(message)
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsAuthenticated reports whether the server has acknowledged this session.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateConnected && m.session.Authenticated
}

// ConnectionID returns the server-assigned connection ID, or "" when no
// session is established.
func (m *Manager) ConnectionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.ConnectionID
}

// Stats returns activity counters.
func (m *Manager) Stats() ManagerStats {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.stats
}

// SubscribeToState registers fn, replays the current state to it
// immediately, then invokes it on every subsequent transition. The returned
// function unsubscribes.
func (m *Manager) SubscribeToState(fn func(State)) func() {
	id := uuid.NewString()

	m.mu.Lock()
	m.listeners = append(m.listeners, stateListener{id: id, fn: fn})
	current := m.state
	m.mu.Unlock()

	fn(current)
	return func() { m.removeListener(id) }
}

func (m *Manager) removeListener(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.listeners {
		if l.id == id {
			m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
			return
		}
	}
}

// transitionLocked records a state change and returns the listeners to
// notify once the lock is released. Returns nil when the state is unchanged.
func (m *Manager) transitionLocked(to State) []stateListener {
	if m.state == to {
		return nil
	}
	m.state = to
	out := make([]stateListener, len(m.listeners))
	copy(out, m.listeners)
	return out
}

func (m *Manager) notify(subs []stateListener, s State) {
	for _, l := range subs {
		l.fn(s)
	}
}

// dial performs one connection attempt for the given socket generation.
func (m *Manager) dial(gen uint64) {
	m.bump(func(s *ManagerStats) { s.Dials++ })

	client := NewClient(m.cfg.URL, m.cfg.DialTimeout, m.cfg.WriteTimeout, m.logger)
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.DialTimeout)
	err := client.Dial(ctx)
	cancel()

	m.mu.Lock()
	if gen != m.gen || m.state != StateConnecting {
		m.mu.Unlock()
		if err == nil {
			client.Close()
		}
		return
	}

	if err != nil {
		m.mu.Unlock()
		m.logger.Warn("dial failed", "url", m.cfg.URL, "error", err)
		m.handleFailure(gen, -1, err.Error())
		return
	}

	m.client = client
	m.sender.Attach(client)
	m.policy.Reset()
	m.session = Session{}
	subs := m.transitionLocked(StateConnected)
	m.mu.Unlock()

	m.notify(subs, StateConnected)
	m.logger.Info("connected", "url", m.cfg.URL)

	go client.ReadLoop(
		func(data []byte) { m.handleFrame(gen, data) },
		func(code int, reason string) { m.handleClose(gen, code, reason) },
	)

	m.sender.Send(router.NewHandshake(m.cfg.UserID, m.cfg.Role))
	m.timers.StartHeartbeat(m.cfg.HeartbeatInterval, func() { m.heartbeat(gen) })
}

// handleFrame forwards an inbound frame to the router unless the socket has
// been superseded.
func (m *Manager) handleFrame(gen uint64, data []byte) {
	m.mu.Lock()
	stale := gen != m.gen
	m.mu.Unlock()
	if stale {
		return
	}

	m.bump(func(s *ManagerStats) { s.FramesReceived++ })
	m.router.Dispatch(data)
}

// handleClose classifies a socket close event: intentional close, auth
// revocation, or transient failure.
func (m *Manager) handleClose(gen uint64, code int, reason string) {
	m.mu.Lock()
	stale := gen != m.gen
	m.mu.Unlock()
	if stale {
		return
	}

	switch {
	case IsAuthFailure(code, reason):
		m.terminateSession(gen, reason)
	case code == websocket.CloseNormalClosure:
		m.logger.Info("server closed connection", "code", code)
		m.shutdownSocket(gen)
	default:
		m.logger.Warn("connection lost", "code", code, "reason", reason)
		m.handleFailure(gen, code, reason)
	}
}

// handleFailure runs the backoff schedule after a transient failure,
// transitioning to reconnecting or, once the budget is spent, to failed.
func (m *Manager) handleFailure(gen uint64, code int, reason string) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	if IsAuthFailure(code, reason) {
		m.mu.Unlock()
		m.terminateSession(gen, reason)
		return
	}

	m.teardownLocked()
	delay, ok := m.policy.NextDelay()
	attempt := m.policy.Attempt()
	if !ok {
		subs := m.transitionLocked(StateFailed)
		m.mu.Unlock()
		m.notify(subs, StateFailed)
		m.logger.Error("reconnect attempts exhausted", "attempts", attempt)
		return
	}
	subs := m.transitionLocked(StateReconnecting)
	m.mu.Unlock()

	m.notify(subs, StateReconnecting)
	m.bump(func(s *ManagerStats) { s.Reconnects++ })
	m.logger.Info("reconnect scheduled", "attempt", attempt, "delay", delay)
	m.timers.ScheduleReconnect(delay, m.Connect)
}

// shutdownSocket handles an intentional (code 1000) server close: no retry.
func (m *Manager) shutdownSocket(gen uint64) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.gen++
	m.timers.StopAll()
	m.teardownLocked()
	subs := m.transitionLocked(StateDisconnected)
	m.mu.Unlock()

	m.notify(subs, StateDisconnected)
}

// terminateSession handles an authentication failure: tear down, no retry,
// hand the session to the logout collaborator. Fires at most once per
// socket generation.
func (m *Manager) terminateSession(gen uint64, reason string) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.gen++
	m.timers.StopAll()
	m.teardownLocked()
	subs := m.transitionLocked(StateDisconnected)
	m.mu.Unlock()

	m.notify(subs, StateDisconnected)
	m.logger.Warn("session revoked by server", "reason", reason)
	if m.auth != nil {
		m.auth.OnAuthenticationFailure(reason)
	}
}

// teardownLocked releases the socket-scoped resources: heartbeat timers,
// the write path and the socket itself. The session is cleared with them.
func (m *Manager) teardownLocked() {
	m.timers.StopHeartbeat()
	m.timers.DisarmPongTimeout()
	m.sender.Detach()
	if m.client != nil {
		m.client.Close()
		m.client = nil
	}
	m.session = Session{}
}

// heartbeat sends one ping and arms the pong deadline.
func (m *Manager) heartbeat(gen uint64) {
	m.mu.Lock()
	live := gen == m.gen && m.state == StateConnected
	m.mu.Unlock()
	if !live {
		return
	}

	if !m.sender.Send(router.NewPing()) {
		return
	}
	m.bump(func(s *ManagerStats) { s.HeartbeatsSent++ })
	// An already-pending deadline is kept: an unanswered ping's clock keeps
	// running no matter how many pings follow it.
	m.timers.ArmPongTimeout(m.cfg.PongTimeout, func() { m.pongTimeout(gen) })
}

// pongTimeout fires when the pong deadline passes: the socket is presumed
// dead, so reconnect immediately instead of waiting out a backoff delay.
func (m *Manager) pongTimeout(gen uint64) {
	m.mu.Lock()
	stale := gen != m.gen
	m.mu.Unlock()
	if stale {
		return
	}

	m.logger.Warn("pong not received in time, assuming dead connection")
	m.Disconnect()
	m.Connect()
}

// OnConnectionSuccess implements router.ControlHandler.
func (m *Manager) OnConnectionSuccess(connectionID string) {
	m.mu.Lock()
	if m.state == StateConnected {
		m.session = Session{ConnectionID: connectionID, Authenticated: true}
	}
	m.mu.Unlock()

	m.logger.Info("session established", "connection_id", connectionID)
}

// OnConnectionError implements router.ControlHandler. Auth-classified
// errors terminate the session; anything else is logged and left to the
// close event that follows.
func (m *Manager) OnConnectionError(message string, code int) {
	if IsAuthFailure(code, message) {
		m.mu.Lock()
		gen := m.gen
		m.mu.Unlock()
		m.terminateSession(gen, message)
		return
	}
	m.logger.Warn("server reported connection error", "message", message, "code", code)
}

// OnPong implements router.ControlHandler.
func (m *Manager) OnPong() {
	m.timers.DisarmPongTimeout()
	m.bump(func(s *ManagerStats) { s.PongsReceived++ })
}

// onOnline: the network is presumed healthy again, reconnect immediately,
// bypassing any backoff in progress.
func (m *Manager) onOnline() {
	m.logger.Info("network available, reconnecting")
	m.Disconnect()
	m.Connect()
}

func (m *Manager) onOffline() {
	m.logger.Info("network lost, holding connection attempts")
	m.Disconnect()
}

// onVisible revives the connection after a suspension unless the socket is
// still open.
func (m *Manager) onVisible() {
	m.mu.Lock()
	open := m.client != nil && m.client.IsOpen()
	m.mu.Unlock()
	if open {
		return
	}

	m.logger.Info("application visible with no open socket, reconnecting")
	m.Disconnect()
	m.Connect()
}

func (m *Manager) bump(f func(*ManagerStats)) {
	m.statsMu.Lock()
	f(&m.stats)
	m.statsMu.Unlock()
}
