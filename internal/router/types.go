package router

import (
	"encoding/json"
	"time"
)

// MessageType tags every frame on the wire. The set is closed: the server
// only ever emits these values.
type MessageType string

const (
	// Control messages
	TypeConnection        MessageType = "connection"
	TypeConnectionSuccess MessageType = "connectionSuccess"
	TypeConnectionError   MessageType = "connectionError"
	TypePing              MessageType = "ping"
	TypePong              MessageType = "pong"

	// Data-update messages, mirrored to the cache-invalidation collaborator
	TypeSurveyUpdate   MessageType = "surveyUpdate"
	TypeLicenseUpdate  MessageType = "licenseUpdate"
	TypeClientUpdate   MessageType = "clientUpdate"
	TypeResultUpdate   MessageType = "resultUpdate"
	TypeSettingsUpdate MessageType = "settingsUpdate"
)

var dataUpdateTypes = map[MessageType]struct{}{
	TypeSurveyUpdate:   {},
	TypeLicenseUpdate:  {},
	TypeClientUpdate:   {},
	TypeResultUpdate:   {},
	TypeSettingsUpdate: {},
}

var knownTypes = map[MessageType]struct{}{
	TypeConnection:        {},
	TypeConnectionSuccess: {},
	TypeConnectionError:   {},
	TypePing:              {},
	TypePong:              {},
	TypeSurveyUpdate:      {},
	TypeLicenseUpdate:     {},
	TypeClientUpdate:      {},
	TypeResultUpdate:      {},
	TypeSettingsUpdate:    {},
}

// IsDataUpdate reports whether frames of this type invalidate cached data.
func (t MessageType) IsDataUpdate() bool {
	_, ok := dataUpdateTypes[t]
	return ok
}

// Known reports whether the type belongs to the closed wire set.
func (t MessageType) Known() bool {
	_, ok := knownTypes[t]
	return ok
}

// DataUpdateTypes returns the data-update subset, for callers that want to
// subscribe to all of them.
func DataUpdateTypes() []MessageType {
	return []MessageType{
		TypeSurveyUpdate,
		TypeLicenseUpdate,
		TypeClientUpdate,
		TypeResultUpdate,
		TypeSettingsUpdate,
	}
}

// Envelope is the parsed wire frame handed to subscribers. Only the fields
// relevant to the frame's type are populated; Payload carries any
// type-specific body untouched.
type Envelope struct {
	Type         MessageType     `json:"type"`
	ConnectionID string          `json:"connectionId,omitempty"`
	Message      string          `json:"message,omitempty"`
	Code         *int            `json:"code,omitempty"`
	Timestamp    string          `json:"timestamp,omitempty"`
	Payload      json.RawMessage `json:"payload,omitempty"`

	raw []byte
}

// Raw returns the complete frame as received from the wire.
func (e *Envelope) Raw() []byte {
	return e.raw
}

// HandshakeFrame is the first message sent after the socket opens.
type HandshakeFrame struct {
	Type      MessageType `json:"type"`
	UserID    int64       `json:"userId"`
	Role      string      `json:"role"`
	Timestamp string      `json:"timestamp"`
}

// PingFrame is the outbound heartbeat probe.
type PingFrame struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp"`
}

// NewHandshake builds the opening handshake for the given identity.
func NewHandshake(userID int64, role string) HandshakeFrame {
	return HandshakeFrame{
		Type:      TypeConnection,
		UserID:    userID,
		Role:      role,
		Timestamp: isoNow(),
	}
}

// NewPing builds a heartbeat frame.
func NewPing() PingFrame {
	return PingFrame{
		Type:      TypePing,
		Timestamp: isoNow(),
	}
}

func isoNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Handler receives frames of a subscribed type.
type Handler func(*Envelope)

// ControlHandler is the connection manager's hook into the router: session
// acknowledgement, server-reported errors and heartbeat pongs are delivered
// here before any user dispatch.
type ControlHandler interface {
	OnConnectionSuccess(connectionID string)
	OnConnectionError(message string, code int)
	OnPong()
}

// CacheInvalidator is told about every data-update frame so the application
// cache can re-fetch the affected keys. Implemented outside this subsystem.
type CacheInvalidator interface {
	NotifyDataUpdate(msgType string, payload []byte)
}

// RouterStats contains runtime counters.
type RouterStats struct {
	FramesReceived int64
	Dispatched     int64
	ParseErrors    int64
	UnknownTypes   int64
}
