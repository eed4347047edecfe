package connectivity

import (
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_EmitFansOutPerSignal(t *testing.T) {
	hub := NewHub(nil)

	var online, offline, visible atomic.Int64
	hub.OnOnline(func() { online.Add(1) })
	hub.OnOnline(func() { online.Add(1) })
	hub.OnOffline(func() { offline.Add(1) })
	hub.OnVisible(func() { visible.Add(1) })

	hub.Emit(SignalOnline)
	hub.Emit(SignalVisible)

	assert.Equal(t, int64(2), online.Load(), "every online listener runs")
	assert.Equal(t, int64(0), offline.Load(), "signals do not cross channels")
	assert.Equal(t, int64(1), visible.Load())
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub(nil)

	var a, b atomic.Int64
	unsubA := hub.OnOnline(func() { a.Add(1) })
	hub.OnOnline(func() { b.Add(1) })

	unsubA()
	unsubA() // idempotent

	hub.Emit(SignalOnline)

	assert.Equal(t, int64(0), a.Load())
	assert.Equal(t, int64(1), b.Load())
}

func TestHub_EmitWithoutListeners(t *testing.T) {
	hub := NewHub(nil)
	hub.Emit(SignalOffline) // must not panic
}

func TestSignal_String(t *testing.T) {
	assert.Equal(t, "online", SignalOnline.String())
	assert.Equal(t, "offline", SignalOffline.String())
	assert.Equal(t, "visible", SignalVisible.String())
	assert.Equal(t, "unknown", Signal(99).String())
}

func TestProbe_EmitsOnlineWhenReachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	hub := NewHub(nil)
	var online, offline atomic.Int64
	hub.OnOnline(func() { online.Add(1) })
	hub.OnOffline(func() { offline.Add(1) })

	probe := NewProbe(hub, ln.Addr().String(), 10*time.Millisecond, nil)
	probe.Start()
	defer probe.Stop()

	deadline := time.Now().Add(time.Second)
	for online.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, int64(1), online.Load(), "first reachable check emits online")

	// Steady state stays silent.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), online.Load())
	assert.Equal(t, int64(0), offline.Load())
}

func TestProbe_EmitsEdgesOnTransition(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	hub := NewHub(nil)
	var online, offline atomic.Int64
	hub.OnOnline(func() { online.Add(1) })
	hub.OnOffline(func() { offline.Add(1) })

	probe := NewProbe(hub, addr, 10*time.Millisecond, nil)
	probe.Start()
	defer probe.Stop()

	deadline := time.Now().Add(time.Second)
	for online.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, int64(1), online.Load())

	// Take the listener down: the next check crosses the offline edge.
	ln.Close()
	deadline = time.Now().Add(time.Second)
	for offline.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, int64(1), offline.Load(), "offline emitted once on the edge")
	assert.Equal(t, int64(1), online.Load(), "no repeated online while down")
}

func TestProbe_FirstCheckUnreachableEmitsOffline(t *testing.T) {
	hub := NewHub(nil)
	var offline atomic.Int64
	hub.OnOffline(func() { offline.Add(1) })

	// Nothing listens on this port.
	probe := NewProbe(hub, "127.0.0.1:1", 10*time.Millisecond, nil)
	probe.Start()
	defer probe.Stop()

	deadline := time.Now().Add(time.Second)
	for offline.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, int64(1), offline.Load())
}

func TestProbe_NoSignalAfterStop(t *testing.T) {
	hub := NewHub(nil)
	var emitted atomic.Int64
	hub.OnOffline(func() { emitted.Add(1) })
	hub.OnOnline(func() { emitted.Add(1) })

	probe := NewProbe(hub, "127.0.0.1:1", 10*time.Millisecond, nil)
	probe.Start()

	deadline := time.Now().Add(time.Second)
	for emitted.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	probe.Stop()

	before := emitted.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, before, emitted.Load())
}
