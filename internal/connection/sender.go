package connection

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Sender is the guarded outbound path. A message either goes out on the
// open socket now or is dropped with a false return; nothing is queued for
// later delivery and no error escapes to the caller.
type Sender struct {
	logger *slog.Logger

	mu     sync.RWMutex
	client *Client
}

func NewSender(logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{logger: logger}
}

// Attach points the sender at a freshly opened socket.
func (s *Sender) Attach(c *Client) {
	s.mu.Lock()
	s.client = c
	s.mu.Unlock()
}

// Detach disconnects the sender from the socket; subsequent sends return
// false.
func (s *Sender) Detach() {
	s.mu.Lock()
	s.client = nil
	s.mu.Unlock()
}

// Send serializes and writes one message. Strings and byte slices pass
// through unchanged; everything else is JSON-encoded. Returns false when
// the socket is not open or when encoding/writing fails.
func (s *Sender) Send(message any) bool {
	s.mu.RLock()
	client := s.client
	s.mu.RUnlock()

	if client == nil || !client.IsOpen() {
		return false
	}

	data, err := encodeMessage(message)
	if err != nil {
		s.logger.Error("failed to encode outbound message", "error", err)
		return false
	}

	if err := client.Write(data); err != nil {
		s.logger.Warn("failed to write message", "error", err)
		return false
	}
	return true
}

func encodeMessage(message any) ([]byte, error) {
	switch m := message.(type) {
	case []byte:
		return m, nil
	case string:
		return []byte(m), nil
	default:
		return json.Marshal(m)
	}
}
