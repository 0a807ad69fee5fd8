//go:build linux

// File: runtime/runtime_test.go
// Author: momentics <momentics@gmail.com>

package runtime_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/plugrt/api"
	"github.com/momentics/plugrt/control"
	"github.com/momentics/plugrt/runtime"
)

func newRuntime(t *testing.T) *runtime.Runtime {
	t.Helper()
	rt, err := runtime.New(control.DefaultConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })
	return rt
}

func TestBlockOnImmediateUnit(t *testing.T) {
	rt := newRuntime(t)
	ran := 0
	err := rt.BlockOn(api.UnitOfWork{
		Poll: func(api.WakeToken) api.PollStatus {
			ran++
			return api.StatusReady
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ran)
}

func TestBlockOnTimerUnit(t *testing.T) {
	rt := newRuntime(t)
	exp := rt.Exports()

	handle, status := exp.TimerCreate(uint64(50 * time.Millisecond))
	require.Equal(t, api.CodeOK, status)

	start := time.Now()
	err := rt.BlockOn(api.UnitOfWork{
		Poll: func(token api.WakeToken) api.PollStatus {
			return exp.TimerPoll(handle, token)
		},
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond,
		"timer fired too early: %v", elapsed)
	assert.Less(t, elapsed, 200*time.Millisecond,
		"timer fired too late: %v", elapsed)
}

func TestBlockOnSurfacesFault(t *testing.T) {
	rt := newRuntime(t)
	err := rt.BlockOn(api.UnitOfWork{
		Poll: func(api.WakeToken) api.PollStatus { panic("unit exploded") },
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrUnitPanicked)
	assert.Contains(t, err.Error(), "unit exploded")
}

func TestFaultedUnitDoesNotPoisonRuntime(t *testing.T) {
	rt := newRuntime(t)

	err := rt.BlockOn(api.UnitOfWork{
		Poll: func(api.WakeToken) api.PollStatus { panic("first") },
	})
	require.ErrorIs(t, err, api.ErrUnitPanicked)

	// The runtime keeps working after a fault.
	err = rt.BlockOn(api.UnitOfWork{
		Poll: func(api.WakeToken) api.PollStatus { return api.StatusReady },
	})
	assert.NoError(t, err)
}

func TestCrossGoroutineSpawnObservedPromptly(t *testing.T) {
	rt := newRuntime(t)

	done := make(chan struct{})
	go func() {
		// Submission races the bounded reactor wait inside BlockOn.
		time.Sleep(20 * time.Millisecond)
		rt.Spawn(api.UnitOfWork{
			Poll: func(api.WakeToken) api.PollStatus {
				close(done)
				return api.StatusReady
			},
		})
	}()

	start := time.Now()
	err := rt.BlockOn(api.UnitOfWork{
		Poll: func(token api.WakeToken) api.PollStatus {
			select {
			case <-done:
				return api.StatusReady
			default:
			}
			// Self-wake keeps this unit cycling; FIFO ordering
			// guarantees the cross-thread unit gets its tick.
			rt.Executor().Wake(token)
			return api.StatusPending
		},
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second,
		"cross-goroutine spawn must be observed promptly")
}

func TestExportsRoundTrip(t *testing.T) {
	rt := newRuntime(t)
	exp := rt.Exports()

	// Invalid descriptor surfaces as a status code, not a Go error.
	_, status := exp.IORegister(-5)
	assert.Equal(t, api.CodeInvalidDescriptor, status)

	// Timer overflow likewise.
	_, status = exp.TimerCreate(^uint64(0))
	assert.Equal(t, api.CodeTimerOverflow, status)

	// Drive through the boundary: 0 = ok.
	assert.Equal(t, api.CodeOK, exp.Drive(0))

	// Spawn + TryTick round trip.
	ran := 0
	exp.Spawn(api.UnitOfWork{
		Poll: func(api.WakeToken) api.PollStatus {
			ran++
			return api.StatusReady
		},
	})
	assert.True(t, exp.TryTick())
	assert.Equal(t, 1, ran)
	assert.False(t, exp.TryTick())

	// BlockOn reports a fault as CodePanicked.
	code := exp.BlockOn(api.UnitOfWork{
		Poll: func(api.WakeToken) api.PollStatus { return api.StatusPanicked },
	})
	assert.Equal(t, api.CodePanicked, code)
}

func TestTwoExportTablesShareOneInstance(t *testing.T) {
	rt := newRuntime(t)

	// Two independently handed-out tables must drive the same runtime:
	// a unit spawned through one is ticked through the other.
	expA := rt.Exports()
	expB := rt.Exports()

	ran := 0
	expA.Spawn(api.UnitOfWork{
		Poll: func(api.WakeToken) api.PollStatus {
			ran++
			return api.StatusReady
		},
	})
	assert.True(t, expB.TryTick())
	assert.Equal(t, 1, ran)
}

func TestDriveAfterClose(t *testing.T) {
	rt, err := runtime.New(control.DefaultConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, rt.Close())

	assert.ErrorIs(t, rt.Drive(0), api.ErrRuntimeClosed)
	assert.Equal(t, api.CodeClosed, rt.Exports().Drive(0))
}

func TestMetricsObserveActivity(t *testing.T) {
	rt := newRuntime(t)
	for i := 0; i < 3; i++ {
		rt.Spawn(api.UnitOfWork{
			Poll: func(api.WakeToken) api.PollStatus { return api.StatusReady },
		})
	}
	for rt.TryTick() {
	}

	families, err := rt.Metrics().Registry().Gather()
	require.NoError(t, err)

	found := map[string]float64{}
	for _, f := range families {
		if len(f.GetMetric()) == 1 {
			found[f.GetName()] = f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(3), found["plugrt_units_spawned_total"])
	assert.Equal(t, float64(3), found["plugrt_ticks_total"])
}
