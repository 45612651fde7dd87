// Package metrics exposes the process-wide prometheus collectors.
// Detached persistence writes are log-only toward clients, so the
// failure counter here is the one observable signal that they broke.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "greenroom_live_sessions",
		Help: "Sessions currently held in the in-memory registry.",
	})

	BroadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greenroom_signal_broadcasts_total",
		Help: "Session snapshots fanned out to room members.",
	})

	EventsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greenroom_proctor_events_total",
		Help: "Proctor events accepted for persistence.",
	})

	BackgroundWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greenroom_background_write_failures_total",
		Help: "Detached persistence tasks that returned an error.",
	})
)
