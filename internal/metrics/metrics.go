// Package metrics exposes the reservation core's Prometheus collectors.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	HoldsCreated      prometheus.Counter
	HoldConflicts     prometheus.Counter
	HoldsReleased     prometheus.Counter
	HoldsFinalized    prometheus.Counter
	Reservations      *prometheus.CounterVec
	Transitions       *prometheus.CounterVec
	GatewayCalls      *prometheus.CounterVec
	GatewayLatency    *prometheus.HistogramVec
	WebhooksReceived  *prometheus.CounterVec
	JobRuns           *prometheus.CounterVec
	CalendarCacheHits *prometheus.CounterVec
}

var (
	once     sync.Once
	registry *Metrics
)

// Default returns the process-wide collectors, registering them on first use.
func Default() *Metrics {
	once.Do(func() {
		registry = New()
		prometheus.MustRegister(registry.collectors()...)
	})
	return registry
}

// New builds unregistered collectors.
func New() *Metrics {
	return &Metrics{
		HoldsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trailerhub",
			Subsystem: "ledger",
			Name:      "holds_created_total",
			Help:      "Payment holds placed on resource calendars.",
		}),
		HoldConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trailerhub",
			Subsystem: "ledger",
			Name:      "hold_conflicts_total",
			Help:      "Hold attempts rejected because another holder owns an overlapping range.",
		}),
		HoldsReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trailerhub",
			Subsystem: "ledger",
			Name:      "holds_released_total",
			Help:      "Hold intervals deleted after cancellation, failure or sweep.",
		}),
		HoldsFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trailerhub",
			Subsystem: "ledger",
			Name:      "holds_finalized_total",
			Help:      "Holds retagged in place to rental blocks.",
		}),
		Reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trailerhub",
			Subsystem: "reservations",
			Name:      "created_total",
			Help:      "Reservation attempts by outcome code.",
		}, []string{"outcome"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trailerhub",
			Subsystem: "rentals",
			Name:      "transitions_total",
			Help:      "Rental status transitions by source, target and actor role.",
		}, []string{"from", "to", "role"}),
		GatewayCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trailerhub",
			Subsystem: "gateway",
			Name:      "calls_total",
			Help:      "Payment gateway calls by operation and result.",
		}, []string{"operation", "result"}),
		GatewayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trailerhub",
			Subsystem: "gateway",
			Name:      "call_duration_seconds",
			Help:      "Payment gateway call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		WebhooksReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trailerhub",
			Subsystem: "gateway",
			Name:      "webhooks_total",
			Help:      "Payment webhooks by verification result.",
		}, []string{"result"}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trailerhub",
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Scheduled job runs by job and result.",
		}, []string{"job", "result"}),
		CalendarCacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trailerhub",
			Subsystem: "calendar_cache",
			Name:      "lookups_total",
			Help:      "Calendar cache lookups by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.HoldsCreated, m.HoldConflicts, m.HoldsReleased, m.HoldsFinalized,
		m.Reservations, m.Transitions, m.GatewayCalls, m.GatewayLatency,
		m.WebhooksReceived, m.JobRuns, m.CalendarCacheHits,
	}
}

// Result labels a call outcome.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
