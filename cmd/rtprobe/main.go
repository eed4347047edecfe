// rtprobe connects to the FormPulse realtime endpoint and streams update
// messages to the console. Useful for verifying connectivity, heartbeat and
// reconnection behavior against a live environment.
//
// Usage: go run ./cmd/rtprobe --config configs/client.example.yaml
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/formpulse/realtime-client/internal/config"
	"github.com/formpulse/realtime-client/internal/connection"
	"github.com/formpulse/realtime-client/internal/connectivity"
	"github.com/formpulse/realtime-client/internal/router"
	"github.com/formpulse/realtime-client/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/client.example.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "print full frame JSON")
	flag.Parse()

	// Set up structured logging
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	logger.Info("starting rtprobe",
		"version", version.String(),
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	wsURL, err := cfg.WebSocketURL()
	if err != nil {
		logger.Error("failed to derive websocket URL", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	r := router.NewRouter(&cachePrinter{logger: logger}, logger)

	mgr := connection.NewManager(connection.Config{
		URL:               wsURL,
		UserID:            cfg.Identity.UserID,
		Role:              cfg.Identity.Role,
		DialTimeout:       cfg.Server.DialTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		HeartbeatInterval: cfg.Heartbeat.Interval,
		PongTimeout:       cfg.Heartbeat.PongTimeout,
		Reconnect: connection.ReconnectConfig{
			BaseDelay:   cfg.Reconnect.BaseDelay,
			Factor:      cfg.Reconnect.Factor,
			MaxDelay:    cfg.Reconnect.MaxDelay,
			MaxAttempts: cfg.Reconnect.MaxAttempts,
		},
	}, r, connection.AuthFailureFunc(func(reason string) {
		logger.Error("session revoked, shutting down", "reason", reason)
		cancel()
	}), logger)
	defer mgr.Close()

	// Connectivity signals from the reachability prober, when configured.
	hub := connectivity.NewHub(logger)
	mgr.BindConnectivity(hub)
	if cfg.Connectivity.ProbeAddr != "" {
		probe := connectivity.NewProbe(hub, cfg.Connectivity.ProbeAddr, cfg.Connectivity.ProbeInterval, logger)
		probe.Start()
		defer probe.Stop()
	}

	unsubState := mgr.SubscribeToState(func(s connection.State) {
		logger.Info("connection state", "state", s.String())
	})
	defer unsubState()

	for _, t := range router.DataUpdateTypes() {
		unsub := r.Subscribe(t, func(env *router.Envelope) {
			if *verbose {
				logger.Info("update", "type", string(env.Type), "frame", string(env.Raw()))
			} else {
				logger.Info("update", "type", string(env.Type), "timestamp", env.Timestamp)
			}
		})
		defer unsub()
	}

	mgr.Connect()

	<-ctx.Done()

	mgr.Disconnect()
	stats := mgr.Stats()
	logger.Info("rtprobe stopped",
		"dials", stats.Dials,
		"reconnects", stats.Reconnects,
		"heartbeats", stats.HeartbeatsSent,
		"pongs", stats.PongsReceived,
		"frames", stats.FramesReceived,
	)
}

// cachePrinter stands in for the application cache: it just logs which keys
// would be re-fetched.
type cachePrinter struct {
	logger *slog.Logger
}

func (c *cachePrinter) NotifyDataUpdate(msgType string, payload []byte) {
	c.logger.Info("cache invalidation", "type", msgType, "bytes", len(payload))
}
