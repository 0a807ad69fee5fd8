// File: runtime/runtime.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Explicitly constructed runtime context: one reactor plus one
// cooperative executor. Lifecycle is caller-managed: create once,
// hand the exports table to every loaded module, shut down explicitly.
// Tooling policy, not statics, enforces the one-instance-per-process
// rule.

// Package runtime binds the reactor and executor into one shared
// asynchronous execution substrate and exposes its boundary surface.
package runtime

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/momentics/plugrt/api"
	"github.com/momentics/plugrt/control"
	"github.com/momentics/plugrt/executor"
	"github.com/momentics/plugrt/reactor"
)

// Runtime is the shared substrate instance.
type Runtime struct {
	cfg     control.Config
	log     *zap.Logger
	metrics *control.Metrics
	reactor *reactor.Reactor
	exec    *executor.Executor
	closed  atomic.Bool
}

// New constructs a runtime from cfg. A nil logger disables logging.
func New(cfg control.Config, log *zap.Logger) (*Runtime, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg = cfg.Normalized()
	metrics := control.NewMetrics()

	r, err := reactor.New(cfg, log.Named("reactor"), metrics)
	if err != nil {
		return nil, err
	}
	return &Runtime{
		cfg:     cfg,
		log:     log,
		metrics: metrics,
		reactor: r,
		exec:    executor.New(log.Named("executor"), metrics),
	}, nil
}

// Reactor exposes the reactor for same-module callers.
func (rt *Runtime) Reactor() *reactor.Reactor { return rt.reactor }

// Executor exposes the executor for same-module callers.
func (rt *Runtime) Executor() *executor.Executor { return rt.exec }

// Metrics exposes the runtime's metric set.
func (rt *Runtime) Metrics() *control.Metrics { return rt.metrics }

// Spawn submits a unit of work for execution.
func (rt *Runtime) Spawn(unit api.UnitOfWork) *executor.Task {
	return rt.exec.Spawn(unit)
}

// TryTick polls at most one ready unit. Returns false when no work is
// ready.
func (rt *Runtime) TryTick() bool { return rt.exec.TryTick() }

// Drive runs one reactor iteration bounded by timeout.
func (rt *Runtime) Drive(timeout time.Duration) error {
	if rt.closed.Load() {
		return api.ErrRuntimeClosed
	}
	return rt.reactor.Drive(timeout)
}

// BlockOn spawns unit and alternates between draining ready ticks and
// driving the reactor until that unit terminates. The reactor wait is
// always bounded so work submitted from other goroutines is observed
// promptly; a continuously ready executor yields to the reactor with a
// zero-timeout drive between drains. Returns the unit's fault if it
// panicked.
func (rt *Runtime) BlockOn(unit api.UnitOfWork) error {
	task := rt.exec.Spawn(unit)

	for {
		if task.Done() {
			return task.Fault()
		}

		didWork := false
		for rt.exec.TryTick() {
			didWork = true
			if task.Done() {
				return task.Fault()
			}
		}

		timeout := rt.cfg.DriveTimeout
		if didWork {
			timeout = 0
		}
		if err := rt.reactor.Drive(timeout); err != nil {
			// Recoverable by contract; keep driving.
			rt.log.Warn("drive failed inside block_on", zap.Error(err))
		}
	}
}

// Close shuts the runtime down. Pending units are abandoned; their
// waiters are dropped, not invoked.
func (rt *Runtime) Close() error {
	if !rt.closed.CompareAndSwap(false, true) {
		return nil
	}
	return rt.reactor.Close()
}
