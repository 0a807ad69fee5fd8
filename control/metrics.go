// File: control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus metrics for one runtime instance. Each runtime owns its
// registry so two runtimes in one test binary never collide.

package control

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics aggregates the runtime's counters and gauges.
type Metrics struct {
	registry *prometheus.Registry

	UnitsSpawned prometheus.Counter
	Ticks        prometheus.Counter
	Wakes        prometheus.Counter
	TimersFired  prometheus.Counter
	PollErrors   prometheus.Counter
	LiveSources  prometheus.Gauge
	LiveTimers   prometheus.Gauge
}

// NewMetrics builds and registers the full metric set.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		UnitsSpawned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plugrt_units_spawned_total",
			Help: "Units of work submitted to the executor.",
		}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plugrt_ticks_total",
			Help: "Executor ticks that polled a unit.",
		}),
		Wakes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plugrt_wakes_total",
			Help: "Wake token invocations, spurious included.",
		}),
		TimersFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plugrt_timers_fired_total",
			Help: "Timers expired by the reactor.",
		}),
		PollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plugrt_poll_errors_total",
			Help: "Recoverable OS poll failures.",
		}),
		LiveSources: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "plugrt_live_sources",
			Help: "Currently registered I/O sources.",
		}),
		LiveTimers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "plugrt_live_timers",
			Help: "Currently pending timers.",
		}),
	}
	m.registry.MustRegister(
		m.UnitsSpawned, m.Ticks, m.Wakes,
		m.TimersFired, m.PollErrors,
		m.LiveSources, m.LiveTimers,
	)
	return m
}

// Registry exposes the runtime's registry for scraping or pushing.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
