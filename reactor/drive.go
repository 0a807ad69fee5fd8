// File: reactor/drive.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// One reactor iteration: expire timers, wait on the OS poller with a
// deadline-aware timeout, clear readiness waiters, then invoke every
// collected waker with no registry lock held; a waker that
// re-registers or spawns work mid-invocation must not deadlock
// against the scan.

package reactor

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/momentics/plugrt/api"
)

// Drive runs one reactor iteration bounded by timeout. timeout == 0
// polls without blocking; timeout < 0 waits until the next timer or
// I/O event. An OS poll failure is reported as ErrPollBackend and is
// recoverable, the driver loop retries.
func (r *Reactor) Drive(timeout time.Duration) error {
	if r.closed.Load() {
		return api.ErrRuntimeClosed
	}

	r.driveMu.Lock()
	defer r.driveMu.Unlock()

	timerWakers, nextTimer := r.expireTimers(time.Now())
	if n := len(timerWakers); n > 0 {
		r.metrics.TimersFired.Add(float64(n))
		r.metrics.LiveTimers.Sub(float64(n))
	}

	// Effective OS wait: min(caller timeout, time to next armed timer).
	effective := timeout
	if nextTimer >= 0 && (effective < 0 || nextTimer < effective) {
		effective = nextTimer
	}

	n, err := r.poller.wait(r.events, effective)
	if err != nil {
		r.metrics.PollErrors.Inc()
		r.log.Warn("os poll failed", zap.Error(err))
		// Still invoke the timer wakers collected above; their timers
		// already expired and must not be lost to an I/O failure.
		invokeAll(timerWakers)
		return errors.WithMessagef(api.ErrPollBackend, "%v", err)
	}

	var ioWakers []api.Waker
	if n > 0 {
		r.ioMu.Lock()
		for _, ev := range r.events[:n] {
			src, ok := r.sources.Get(ev.key)
			if !ok {
				// Source deregistered between wait and scan; the queued
				// event is a benign leftover.
				continue
			}
			if ev.readable {
				src.readReady = true
				if src.readWaker != nil {
					ioWakers = append(ioWakers, src.readWaker)
					src.readWaker = nil
				}
			}
			if ev.writable {
				src.writeReady = true
				if src.writeWaker != nil {
					ioWakers = append(ioWakers, src.writeWaker)
					src.writeWaker = nil
				}
			}
		}
		r.ioMu.Unlock()
	}

	// Timers first, then I/O. No locks are held past this point.
	invokeAll(timerWakers)
	invokeAll(ioWakers)
	return nil
}

func invokeAll(wakers []api.Waker) {
	for _, w := range wakers {
		w()
	}
}
