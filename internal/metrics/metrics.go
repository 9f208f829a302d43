// Package metrics holds the coordinator's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lrh"

type Metrics struct {
	RoomsActive    prometheus.Gauge
	SessionsActive prometheus.Gauge
	RoomsCreated   prometheus.Counter
	RoomsDestroyed *prometheus.CounterVec
	Rolls          prometheus.Counter
	Commands       *prometheus.CounterVec
	JoinFailures   *prometheus.CounterVec
	Evictions      prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RoomsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "rooms_active",
			Help: "Rooms currently held by the coordinator.",
		}),
		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "sessions_active",
			Help: "Identities with a live connection.",
		}),
		RoomsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rooms_created_total",
			Help: "Rooms created.",
		}),
		RoomsDestroyed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rooms_destroyed_total",
			Help: "Rooms destroyed, by reason.",
		}, []string{"reason"}),
		Rolls: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "rolls_total",
			Help: "Completed hero rolls.",
		}),
		Commands: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "commands_total",
			Help: "Inbound commands, by type.",
		}, []string{"type"}),
		JoinFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "join_failures_total",
			Help: "Rejected join-room commands, by reason.",
		}, []string{"reason"}),
		Evictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "evictions_total",
			Help: "Sessions replaced by a newer connection of the same identity.",
		}),
	}
}

// Discard returns collectors bound to a private registry.
func Discard() *Metrics { return New(prometheus.NewRegistry()) }
