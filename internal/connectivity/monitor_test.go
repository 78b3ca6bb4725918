package connectivity

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/fieldsync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_CheckFlipsState(t *testing.T) {
	var fail atomic.Bool
	p := ProberFunc(func(ctx context.Context) error {
		if fail.Load() {
			return errors.New("no route")
		}
		return nil
	})
	m := NewMonitor(p, time.Second, 100*time.Millisecond, false, logging.Discard())

	var got []bool
	m.Subscribe(func(online bool) { got = append(got, online) })

	assert.True(t, m.Check(context.Background()))
	fail.Store(true)
	assert.False(t, m.Check(context.Background()))
	assert.False(t, m.Check(context.Background()))

	assert.Equal(t, []bool{true, false}, got)
}

func TestMonitor_CheckAppliesTimeout(t *testing.T) {
	p := ProberFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	m := NewMonitor(p, time.Second, 20*time.Millisecond, true, logging.Discard())

	start := time.Now()
	assert.False(t, m.Check(context.Background()))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestMonitor_TimeoutCappedByInterval(t *testing.T) {
	m := NewMonitor(ProberFunc(func(context.Context) error { return nil }), time.Second, time.Minute, true, logging.Discard())
	assert.Equal(t, time.Second, m.timeout)
}

func TestMonitor_StartProbesImmediately(t *testing.T) {
	var probes atomic.Int32
	p := ProberFunc(func(ctx context.Context) error {
		probes.Add(1)
		return nil
	})
	m := NewMonitor(p, time.Hour, time.Second, false, logging.Discard())

	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() { _ = m.Stop() })

	require.Eventually(t, func() bool { return m.Online() }, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, probes.Load(), int32(1))

	require.ErrorIs(t, m.Start(context.Background()), ErrMonitorStarted)
}

func TestMonitor_StopWithoutStart(t *testing.T) {
	m := NewMonitor(ProberFunc(func(context.Context) error { return nil }), time.Second, time.Second, false, logging.Discard())
	require.NoError(t, m.Stop())
}
