// File: executor/executor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Single-threaded cooperative executor. Submission is multi-producer,
// advancement is single-consumer: spawns and wakes may arrive from any
// goroutine, but units are only ever polled by whichever goroutine
// drives TryTick.

// Package executor advances opaque units of work one poll at a time.
package executor

import (
	"sync"

	"github.com/eapache/queue"
	"go.uber.org/zap"

	"github.com/momentics/plugrt/api"
	"github.com/momentics/plugrt/control"
	"github.com/momentics/plugrt/internal/slab"
)

// Executor owns the FIFO ready queue and the wake-token table.
type Executor struct {
	log     *zap.Logger
	metrics *control.Metrics

	mu    sync.Mutex
	ready *queue.Queue // FIFO of *Task

	tokenMu sync.Mutex
	tokens  *slab.Slab[*Task]
}

// New constructs an executor.
func New(log *zap.Logger, metrics *control.Metrics) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = control.NewMetrics()
	}
	return &Executor{
		log:     log,
		metrics: metrics,
		ready:   queue.New(),
		tokens:  slab.New[*Task](0),
	}
}

// Spawn wraps unit in a task record whose waker re-enqueues it, issues
// the record's wake token, and pushes it onto the ready queue for its
// first poll.
func (e *Executor) Spawn(unit api.UnitOfWork) *Task {
	t := &Task{exec: e, unit: unit}
	t.state.Store(stateQueued)

	e.tokenMu.Lock()
	raw, _ := e.tokens.Insert(t) // token table is unbounded
	e.tokenMu.Unlock()
	t.token = api.WakeToken(raw)

	e.enqueue(t)
	e.metrics.UnitsSpawned.Inc()
	e.log.Debug("unit spawned", zap.Uint64("token", raw))
	return t
}

// TryTick pops at most one ready record and polls it once. Returns
// false when the ready queue is empty. Fairness between compute and
// I/O belongs to the driver loop, so a tick never advances more than
// one record.
func (e *Executor) TryTick() bool {
	e.mu.Lock()
	if e.ready.Length() == 0 {
		e.mu.Unlock()
		return false
	}
	t := e.ready.Remove().(*Task)
	e.mu.Unlock()

	e.metrics.Ticks.Inc()
	t.state.Store(stateRunning)
	status := t.pollOnce()

	if status == api.StatusPending {
		// Park unless a wake arrived mid-poll; in that case the record
		// re-enters the queue exactly once.
		if !t.state.CompareAndSwap(stateRunning, stateIdle) {
			t.state.Store(stateQueued)
			e.enqueue(t)
		}
		return true
	}

	t.retire(status)
	return true
}

// Wake marks the unit behind token runnable again. Tokens for retired
// units fail the table lookup: such wakes are benign and ignored.
func (e *Executor) Wake(token api.WakeToken) {
	e.metrics.Wakes.Inc()

	e.tokenMu.Lock()
	tp, ok := e.tokens.Get(uint64(token))
	e.tokenMu.Unlock()
	if !ok {
		return
	}
	(*tp).wake()
}

// WakerFor translates a wake token into an in-process waker.
func (e *Executor) WakerFor(token api.WakeToken) api.Waker {
	return func() { e.Wake(token) }
}

// ReadyLen reports the current ready-queue depth.
func (e *Executor) ReadyLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready.Length()
}

func (e *Executor) enqueue(t *Task) {
	e.mu.Lock()
	e.ready.Add(t)
	e.mu.Unlock()
}

func (e *Executor) dropToken(token api.WakeToken) {
	e.tokenMu.Lock()
	e.tokens.Remove(uint64(token))
	e.tokenMu.Unlock()
}
