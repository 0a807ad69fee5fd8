// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Reactor core: source registry, registration lifecycle and readiness
// polling. Timer state lives in timers.go, the drive cycle in drive.go.

package reactor

import (
	"sync"
	"sync/atomic"

	"github.com/google/btree"
	"go.uber.org/zap"

	"github.com/momentics/plugrt/api"
	"github.com/momentics/plugrt/control"
	"github.com/momentics/plugrt/internal/slab"
)

// source is one registered descriptor. Exclusively owned by the
// reactor; referenced externally only through an api.IoHandle.
type source struct {
	fd         int
	registered bool // true once the fd has been added to the OS poller

	readWaker  api.Waker
	writeWaker api.Waker

	// Set by Drive when the OS reports readiness, cleared by the next
	// PollReadable/PollWritable observation.
	readReady  bool
	writeReady bool
}

// Reactor multiplexes I/O readiness and timer expiry into waker
// invocations. Safe for concurrent registration and polling; the drive
// cycle itself is single-consumer.
type Reactor struct {
	log     *zap.Logger
	metrics *control.Metrics
	poller  osPoller
	closed  atomic.Bool

	ioMu    sync.Mutex
	sources *slab.Slab[source]

	timerMu   sync.Mutex
	timerSeq  atomic.Uint64
	deadlines map[uint64]timerDeadline // timer id -> deadline
	timers    *btree.BTreeG[timerEntry]

	driveMu sync.Mutex
	events  []pollEvent
}

// New constructs a reactor over the platform poller.
func New(cfg control.Config, log *zap.Logger, metrics *control.Metrics) (*Reactor, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = control.NewMetrics()
	}
	poller, err := newOSPoller()
	if err != nil {
		return nil, err
	}
	return &Reactor{
		log:       log,
		metrics:   metrics,
		poller:    poller,
		sources:   slab.New[source](cfg.MaxSources),
		deadlines: make(map[uint64]timerDeadline),
		timers:    btree.NewG(timerDegree, timerLess),
		events:    make([]pollEvent, cfg.MaxEvents),
	}, nil
}

// Close releases the OS poller. Pending waiters are dropped, not woken.
func (r *Reactor) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	return r.poller.close()
}

// RegisterIO adds a registry entry for fd and returns its handle. The
// fd is NOT added to the OS poller yet; the first readiness poll
// performs the OS-level add, so descriptors registered with no interest
// never produce "empty interest" errors.
func (r *Reactor) RegisterIO(fd int) (api.IoHandle, error) {
	if fd < 0 {
		return 0, api.ErrInvalidDescriptor
	}
	if r.closed.Load() {
		return 0, api.ErrRuntimeClosed
	}

	r.ioMu.Lock()
	handle, ok := r.sources.Insert(source{fd: fd})
	r.ioMu.Unlock()
	if !ok {
		return 0, api.ErrTableExhausted
	}

	r.metrics.LiveSources.Inc()
	r.log.Debug("io source registered",
		zap.Int("fd", fd), zap.Uint64("handle", handle))
	return api.IoHandle(handle), nil
}

// DeregisterIO removes the entry and any OS interest, invalidating the
// handle. Stored waiters are dropped without being invoked.
func (r *Reactor) DeregisterIO(handle api.IoHandle) {
	r.ioMu.Lock()
	src, ok := r.sources.Remove(uint64(handle))
	r.ioMu.Unlock()
	if !ok {
		return
	}

	if src.registered {
		// The caller may already have closed the fd; a failed delete
		// is expected in that case.
		if err := r.poller.delete(src.fd); err != nil {
			r.log.Debug("poller delete on deregister", zap.Error(err))
		}
	}
	r.metrics.LiveSources.Dec()
	r.log.Debug("io source deregistered",
		zap.Int("fd", src.fd), zap.Uint64("handle", uint64(handle)))
}

// PollReadable reports whether the source became readable since the
// last check. If not, waker is stored (replacing any prior one) and OS
// interest is ensured.
//
// A stale handle yields StatusReady: the caller re-attempts its I/O and
// observes the real state, the same tolerance required for spurious
// wakes.
func (r *Reactor) PollReadable(handle api.IoHandle, waker api.Waker) api.PollStatus {
	r.ioMu.Lock()
	defer r.ioMu.Unlock()

	src, ok := r.sources.Get(uint64(handle))
	if !ok {
		return api.StatusReady
	}
	if src.readReady {
		src.readReady = false
		return api.StatusReady
	}
	src.readWaker = waker
	r.updateInterest(uint64(handle), src)
	return api.StatusPending
}

// PollWritable is the write-direction counterpart of PollReadable.
func (r *Reactor) PollWritable(handle api.IoHandle, waker api.Waker) api.PollStatus {
	r.ioMu.Lock()
	defer r.ioMu.Unlock()

	src, ok := r.sources.Get(uint64(handle))
	if !ok {
		return api.StatusReady
	}
	if src.writeReady {
		src.writeReady = false
		return api.StatusReady
	}
	src.writeWaker = waker
	r.updateInterest(uint64(handle), src)
	return api.StatusPending
}

// updateInterest syncs oneshot OS interest with the stored waker state.
// Called with ioMu held.
func (r *Reactor) updateInterest(key uint64, src *source) {
	read := src.readWaker != nil
	write := src.writeWaker != nil

	var err error
	if src.registered {
		err = r.poller.modify(src.fd, key, read, write)
	} else {
		err = r.poller.add(src.fd, key, read, write)
		if err == nil {
			src.registered = true
		}
	}
	if err != nil {
		r.log.Warn("poller interest update failed",
			zap.Int("fd", src.fd), zap.Error(err))
	}
}
