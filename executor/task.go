// File: executor/task.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Task record and its scheduling state machine. The state transitions
// guarantee a record is never present in the ready queue twice: a wake
// that lands while the record is being polled flags it for one
// re-queue instead of inserting it again.

package executor

import (
	"fmt"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/momentics/plugrt/api"
)

const (
	// stateIdle: parked, not queued, not being polled.
	stateIdle int32 = iota
	// stateQueued: present in the ready queue.
	stateQueued
	// stateRunning: currently being polled by TryTick.
	stateRunning
	// stateNotified: being polled, with a wake already pending.
	stateNotified
)

// Task is the executor-side record of one spawned unit of work.
type Task struct {
	exec  *Executor
	unit  api.UnitOfWork
	token api.WakeToken

	state atomic.Int32
	done  atomic.Bool
	fault atomic.Value // string; set when the unit panicked
}

// Done reports whether the unit has been retired (completed or faulted).
func (t *Task) Done() bool { return t.done.Load() }

// Fault returns the unit's fault as an error, or nil if it completed
// normally or is still pending.
func (t *Task) Fault() error {
	v := t.fault.Load()
	if v == nil {
		return nil
	}
	return errors.WithMessage(api.ErrUnitPanicked, v.(string))
}

// Token returns the record's wake token.
func (t *Task) Token() api.WakeToken { return t.token }

// wake transitions the record toward the ready queue. Safe to call
// from any goroutine, any number of times.
func (t *Task) wake() {
	for {
		switch s := t.state.Load(); s {
		case stateQueued, stateNotified:
			return
		case stateRunning:
			if t.state.CompareAndSwap(stateRunning, stateNotified) {
				return
			}
		case stateIdle:
			if t.done.Load() {
				// Spurious wake after retirement.
				return
			}
			if t.state.CompareAndSwap(stateIdle, stateQueued) {
				t.exec.enqueue(t)
				return
			}
		}
	}
}

// pollOnce advances the unit one step. A native panic is caught here,
// before it can unwind into the driver loop, and converted to
// StatusPanicked with the payload preserved as the task's fault.
func (t *Task) pollOnce() (status api.PollStatus) {
	defer func() {
		if rec := recover(); rec != nil {
			t.fault.Store(fmt.Sprintf("%v", rec))
			status = api.StatusPanicked
		}
	}()
	status = t.unit.Poll(t.token)
	if status == api.StatusPanicked && t.fault.Load() == nil {
		// The fault happened on the far side of the boundary and was
		// already converted to a value there.
		t.fault.Store("fault reported across module boundary")
	}
	return status
}

// retire finalizes a Ready or Panicked record: the wake token is
// invalidated, the unit's Drop runs exactly once, and the completion
// becomes observable through Done/Fault.
func (t *Task) retire(status api.PollStatus) {
	t.exec.dropToken(t.token)
	t.done.Store(true)
	t.state.Store(stateIdle)

	if t.unit.Drop != nil {
		t.unit.Drop()
	}
	if status == api.StatusPanicked {
		t.exec.log.Warn("unit of work faulted",
			zap.Uint64("token", uint64(t.token)),
			zap.String("fault", fmt.Sprint(t.fault.Load())))
	}
}
