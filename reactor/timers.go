// File: reactor/timers.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Timer registry. Two structures: a btree ordered by (deadline, id)
// for cheap next-expiry scans, and an id-indexed map for O(1) cancel
// and poll-by-handle. Ties on equal deadlines break by creation order
// because ids are allocated from a monotonic counter.

package reactor

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/momentics/plugrt/api"
)

const timerDegree = 16

// timerEntry lives in the ordered btree. The waker is stored on the
// first PollTimer, not at creation.
type timerEntry struct {
	deadline time.Time
	id       uint64
	waker    api.Waker
}

func timerLess(a, b timerEntry) bool {
	if !a.deadline.Equal(b.deadline) {
		return a.deadline.Before(b.deadline)
	}
	return a.id < b.id
}

// timerDeadline is the map-side record for one timer id.
type timerDeadline struct {
	deadline time.Time
}

// CreateTimer registers a one-shot timer firing nanosFromNow
// nanoseconds from now and returns its handle. The deadline is
// monotonic. Arithmetic that would overflow is rejected.
func (r *Reactor) CreateTimer(nanosFromNow uint64) (api.TimerHandle, error) {
	if nanosFromNow > math.MaxInt64 {
		return 0, api.ErrTimerOverflow
	}
	if r.closed.Load() {
		return 0, api.ErrRuntimeClosed
	}
	deadline := time.Now().Add(time.Duration(nanosFromNow))
	id := r.timerSeq.Add(1)

	r.timerMu.Lock()
	r.deadlines[id] = timerDeadline{deadline: deadline}
	r.timerMu.Unlock()

	r.metrics.LiveTimers.Inc()
	r.log.Debug("timer created",
		zap.Uint64("id", id), zap.Duration("in", time.Duration(nanosFromNow)))
	return api.TimerHandle(id), nil
}

// CancelTimer removes a pending timer from both structures. The stored
// waker, if any, is dropped without being invoked. Cancelling an
// already-fired timer is a no-op.
func (r *Reactor) CancelTimer(handle api.TimerHandle) {
	id := uint64(handle)

	r.timerMu.Lock()
	td, ok := r.deadlines[id]
	if ok {
		delete(r.deadlines, id)
		r.timers.Delete(timerEntry{deadline: td.deadline, id: id})
	}
	r.timerMu.Unlock()

	if ok {
		r.metrics.LiveTimers.Dec()
	}
}

// PollTimer reports StatusReady once now >= deadline, retiring the
// timer. Otherwise the waker is stored (replacing any prior one). An
// unknown id (already fired or cancelled) is Ready.
func (r *Reactor) PollTimer(handle api.TimerHandle, waker api.Waker) api.PollStatus {
	id := uint64(handle)

	r.timerMu.Lock()
	td, ok := r.deadlines[id]
	if !ok {
		r.timerMu.Unlock()
		return api.StatusReady
	}
	if !time.Now().Before(td.deadline) {
		delete(r.deadlines, id)
		r.timers.Delete(timerEntry{deadline: td.deadline, id: id})
		r.timerMu.Unlock()
		r.metrics.LiveTimers.Dec()
		return api.StatusReady
	}
	r.timers.ReplaceOrInsert(timerEntry{deadline: td.deadline, id: id, waker: waker})
	r.timerMu.Unlock()
	return api.StatusPending
}

// expireTimers removes entries with deadline <= now in (deadline, id)
// order and collects their wakers. Returns the wait until the next
// armed timer, or -1 when none is armed.
func (r *Reactor) expireTimers(now time.Time) (wakers []api.Waker, next time.Duration) {
	r.timerMu.Lock()
	defer r.timerMu.Unlock()

	for {
		entry, ok := r.timers.Min()
		if !ok {
			return wakers, -1
		}
		if entry.deadline.After(now) {
			return wakers, entry.deadline.Sub(now)
		}
		r.timers.DeleteMin()
		delete(r.deadlines, entry.id)
		if entry.waker != nil {
			wakers = append(wakers, entry.waker)
		}
	}
}
