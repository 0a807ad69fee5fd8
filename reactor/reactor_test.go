//go:build linux

// File: reactor/reactor_test.go
// Author: momentics <momentics@gmail.com>

package reactor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/momentics/plugrt/api"
	"github.com/momentics/plugrt/control"
	"github.com/momentics/plugrt/reactor"
)

func newReactor(t *testing.T) *reactor.Reactor {
	t.Helper()
	r, err := reactor.New(control.DefaultConfig(), nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func newPipe(t *testing.T) (r, w int) {
	t.Helper()
	var fds [2]int
	require.NoError(t, unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC))
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestRegisterInvalidDescriptor(t *testing.T) {
	r := newReactor(t)
	_, err := r.RegisterIO(-1)
	assert.ErrorIs(t, err, api.ErrInvalidDescriptor)
}

func TestSourceTableExhaustion(t *testing.T) {
	cfg := control.DefaultConfig()
	cfg.MaxSources = 1
	r, err := reactor.New(cfg, nil, nil)
	require.NoError(t, err)
	defer r.Close()

	rfd, wfd := newPipe(t)
	h, err := r.RegisterIO(rfd)
	require.NoError(t, err)

	_, err = r.RegisterIO(wfd)
	assert.ErrorIs(t, err, api.ErrTableExhausted)

	// Exhaustion is local to the failing call: freeing the slot makes
	// registration work again.
	r.DeregisterIO(h)
	_, err = r.RegisterIO(wfd)
	assert.NoError(t, err)
}

func TestStaleHandleNeverAliases(t *testing.T) {
	r := newReactor(t)
	rfd, wfd := newPipe(t)

	h1, err := r.RegisterIO(rfd)
	require.NoError(t, err)
	r.DeregisterIO(h1)

	// Re-register: the slot may be reused, the handle value must not be.
	h2, err := r.RegisterIO(wfd)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)

	// Stale lookups fail cleanly (Ready = caller re-checks real state),
	// and never disturb the live entry's waiters.
	invoked := 0
	require.Equal(t, api.StatusPending,
		r.PollWritable(h2, func() { invoked++ }))
	assert.Equal(t, api.StatusReady, r.PollReadable(h1, func() { invoked++ }))
	assert.Equal(t, 0, invoked)
}

func TestDeregisterDropsWaiterWithoutInvoking(t *testing.T) {
	r := newReactor(t)
	rfd, wfd := newPipe(t)

	h, err := r.RegisterIO(rfd)
	require.NoError(t, err)

	invoked := 0
	require.Equal(t, api.StatusPending, r.PollReadable(h, func() { invoked++ }))

	r.DeregisterIO(h)

	// Data arrives after deregistration; the dropped waiter must stay
	// silent.
	_, err = unix.Write(wfd, []byte("x"))
	require.NoError(t, err)
	require.NoError(t, r.Drive(0))
	assert.Equal(t, 0, invoked)
}

func TestReadinessWakesExactlyOnce(t *testing.T) {
	r := newReactor(t)
	rfd, wfd := newPipe(t)

	h, err := r.RegisterIO(rfd)
	require.NoError(t, err)

	invoked := 0
	require.Equal(t, api.StatusPending, r.PollReadable(h, func() { invoked++ }))

	_, err = unix.Write(wfd, []byte("x"))
	require.NoError(t, err)

	require.NoError(t, r.Drive(10*time.Millisecond))
	assert.Equal(t, 1, invoked, "exactly one waiter invocation per readiness")

	// Readiness was latched; the next poll observes it without waiting.
	assert.Equal(t, api.StatusReady, r.PollReadable(h, func() { invoked++ }))
	assert.Equal(t, 1, invoked)

	// Further drives produce no duplicate wake.
	require.NoError(t, r.Drive(0))
	assert.Equal(t, 1, invoked)
}

func TestIndependentSourcesIndependentlyWakeable(t *testing.T) {
	r := newReactor(t)
	rfdA, wfdA := newPipe(t)
	rfdB, _ := newPipe(t)

	hA, err := r.RegisterIO(rfdA)
	require.NoError(t, err)
	hB, err := r.RegisterIO(rfdB)
	require.NoError(t, err)

	wokeA, wokeB := 0, 0
	require.Equal(t, api.StatusPending, r.PollReadable(hA, func() { wokeA++ }))
	require.Equal(t, api.StatusPending, r.PollReadable(hB, func() { wokeB++ }))

	// Only A becomes ready.
	_, err = unix.Write(wfdA, []byte("x"))
	require.NoError(t, err)

	require.NoError(t, r.Drive(10*time.Millisecond))
	assert.Equal(t, 1, wokeA)
	assert.Equal(t, 0, wokeB, "B's stored waiter must never fire")
}

func TestWriteReadinessOnPipe(t *testing.T) {
	r := newReactor(t)
	_, wfd := newPipe(t)

	h, err := r.RegisterIO(wfd)
	require.NoError(t, err)

	// An empty pipe is immediately writable; the first poll stores the
	// waiter, drive reports readiness.
	invoked := 0
	st := r.PollWritable(h, func() { invoked++ })
	if st == api.StatusPending {
		require.NoError(t, r.Drive(10*time.Millisecond))
		assert.Equal(t, 1, invoked)
		assert.Equal(t, api.StatusReady, r.PollWritable(h, func() {}))
	}
}

func TestDriveAfterCloseFails(t *testing.T) {
	r, err := reactor.New(control.DefaultConfig(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Drive(0), api.ErrRuntimeClosed)
}
