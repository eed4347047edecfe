package connection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referencePolicy() *reconnectPolicy {
	return newReconnectPolicy(ReconnectConfig{
		BaseDelay:   5 * time.Second,
		Factor:      2.0,
		MaxDelay:    60 * time.Second,
		MaxAttempts: 10,
	})
}

func TestReconnectPolicy_DelaySequence(t *testing.T) {
	p := referencePolicy()

	want := []time.Duration{
		5 * time.Second,
		10 * time.Second,
		20 * time.Second,
		40 * time.Second,
		60 * time.Second,
		60 * time.Second,
	}

	for i, expected := range want {
		delay, ok := p.NextDelay()
		require.True(t, ok, "attempt %d should still be within budget", i+1)
		assert.Equal(t, expected, delay, "delay for attempt %d", i+1)
	}
}

func TestReconnectPolicy_Exhaustion(t *testing.T) {
	p := referencePolicy()

	for i := 1; i <= 9; i++ {
		_, ok := p.NextDelay()
		require.True(t, ok, "attempt %d", i)
	}

	// The tenth failed attempt exhausts the budget: no further timer.
	_, ok := p.NextDelay()
	assert.False(t, ok)
	assert.Equal(t, 10, p.Attempt())
}

func TestReconnectPolicy_ResetRestoresBudgetAndSchedule(t *testing.T) {
	p := referencePolicy()

	for i := 0; i < 4; i++ {
		p.NextDelay()
	}
	p.Reset()

	assert.Equal(t, 0, p.Attempt())

	delay, ok := p.NextDelay()
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, delay, "schedule restarts from the base delay")
}
