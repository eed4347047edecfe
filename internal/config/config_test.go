package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func validYAML() string {
	return `
identity:
  user_id: 1001
  role: admin

server:
  base_url: https://app.formpulse.example
  ws_path: /ws
  dial_timeout: 10s
  write_timeout: 5s

reconnect:
  base_delay: 5s
  factor: 2.0
  max_delay: 60s
  max_attempts: 10

heartbeat:
  interval: 60s
  pong_timeout: 15s

connectivity:
  probe_addr: app.formpulse.example:443
  probe_interval: 30s
`
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, validYAML())

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(1001), cfg.Identity.UserID)
	assert.Equal(t, "admin", cfg.Identity.Role)
	assert.Equal(t, "https://app.formpulse.example", cfg.Server.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Reconnect.BaseDelay)
	assert.Equal(t, 2.0, cfg.Reconnect.Factor)
	assert.Equal(t, 10, cfg.Reconnect.MaxAttempts)
	assert.Equal(t, 60*time.Second, cfg.Heartbeat.Interval)
	assert.Equal(t, 15*time.Second, cfg.Heartbeat.PongTimeout)
	assert.Equal(t, "app.formpulse.example:443", cfg.Connectivity.ProbeAddr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "identity: [not a mapping")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("FP_BASE_URL", "https://staging.formpulse.example")
	t.Setenv("FP_ROLE", "editor")

	path := writeConfig(t, `
identity:
  user_id: 55
  role: ${FP_ROLE}
server:
  base_url: ${FP_BASE_URL}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "editor", cfg.Identity.Role)
	assert.Equal(t, "https://staging.formpulse.example", cfg.Server.BaseURL)
}

func TestLoadWithDefaults(t *testing.T) {
	path := writeConfig(t, `
identity:
  user_id: 1
  role: admin
server:
  base_url: https://app.formpulse.example
`)

	cfg, err := LoadWithDefaults(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultWSPath, cfg.Server.WSPath)
	assert.Equal(t, DefaultDialTimeout, cfg.Server.DialTimeout)
	assert.Equal(t, DefaultWriteTimeout, cfg.Server.WriteTimeout)
	assert.Equal(t, DefaultBaseDelay, cfg.Reconnect.BaseDelay)
	assert.Equal(t, DefaultFactor, cfg.Reconnect.Factor)
	assert.Equal(t, DefaultMaxDelay, cfg.Reconnect.MaxDelay)
	assert.Equal(t, DefaultMaxAttempts, cfg.Reconnect.MaxAttempts)
	assert.Equal(t, DefaultInterval, cfg.Heartbeat.Interval)
	assert.Equal(t, DefaultPongTimeout, cfg.Heartbeat.PongTimeout)
	assert.Equal(t, DefaultProbeInterval, cfg.Connectivity.ProbeInterval)
}

func TestLoadAndValidate(t *testing.T) {
	cfg, err := LoadAndValidate(writeConfig(t, validYAML()))
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Defaults cannot rescue a missing identity.
	_, err = LoadAndValidate(writeConfig(t, `
server:
  base_url: https://app.formpulse.example
`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *ClientConfig {
		cfg := &ClientConfig{}
		cfg.Identity.UserID = 1
		cfg.Identity.Role = "admin"
		cfg.Server.BaseURL = "https://app.formpulse.example"
		cfg.applyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*ClientConfig)
		wantErr string
	}{
		{"valid", func(*ClientConfig) {}, ""},
		{"missing user id", func(c *ClientConfig) { c.Identity.UserID = 0 }, "identity.user_id"},
		{"negative user id", func(c *ClientConfig) { c.Identity.UserID = -3 }, "identity.user_id"},
		{"missing role", func(c *ClientConfig) { c.Identity.Role = "" }, "identity.role"},
		{"missing base url", func(c *ClientConfig) { c.Server.BaseURL = "" }, "server.base_url"},
		{"bad scheme", func(c *ClientConfig) { c.Server.BaseURL = "ftp://app.example" }, "unsupported scheme"},
		{"zero base delay", func(c *ClientConfig) { c.Reconnect.BaseDelay = 0 }, "reconnect.base_delay"},
		{"factor below one", func(c *ClientConfig) { c.Reconnect.Factor = 0.5 }, "reconnect.factor"},
		{"max delay below base", func(c *ClientConfig) { c.Reconnect.MaxDelay = time.Second }, "reconnect.max_delay"},
		{"zero attempts", func(c *ClientConfig) { c.Reconnect.MaxAttempts = 0 }, "reconnect.max_attempts"},
		{"zero heartbeat interval", func(c *ClientConfig) { c.Heartbeat.Interval = 0 }, "heartbeat.interval"},
		{"zero pong timeout", func(c *ClientConfig) { c.Heartbeat.PongTimeout = 0 }, "heartbeat.pong_timeout"},
		{"pong timeout exceeds interval", func(c *ClientConfig) { c.Heartbeat.PongTimeout = 2 * time.Minute }, "pong_timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wsPath  string
		want    string
		wantErr bool
	}{
		{"https becomes wss", "https://app.formpulse.example", "/ws", "wss://app.formpulse.example/ws", false},
		{"http becomes ws", "http://localhost:8080", "/ws", "ws://localhost:8080/ws", false},
		{"ws passes through", "ws://localhost:8080", "/realtime", "ws://localhost:8080/realtime", false},
		{"wss passes through", "wss://app.formpulse.example", "/ws", "wss://app.formpulse.example/ws", false},
		{"port preserved", "https://app.formpulse.example:8443", "/ws", "wss://app.formpulse.example:8443/ws", false},
		{"unsupported scheme", "ftp://app.formpulse.example", "/ws", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &ClientConfig{}
			cfg.Server.BaseURL = tt.baseURL
			cfg.Server.WSPath = tt.wsPath

			got, err := cfg.WebSocketURL()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
