// Package metrics declares the Prometheus instruments exported by the
// service at /metrics.
//
// Naming convention: namespace_subsystem_name.
//   - namespace: tabula (application-level grouping)
//   - subsystem: websocket, room, reaction, boardgen, redis
//   - name: specific metric
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveWebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tabula",
		Subsystem: "websocket",
		Name:      "connections_active",
		Help:      "Current number of active WebSocket connections",
	})

	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tabula",
		Subsystem: "room",
		Name:      "rooms_active",
		Help:      "Current number of live rooms",
	})

	RoomParticipants = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "tabula",
		Subsystem: "room",
		Name:      "participants_count",
		Help:      "Number of participants in each room, by role",
	}, []string{"room_id", "role"})

	WebsocketEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tabula",
		Subsystem: "websocket",
		Name:      "events_total",
		Help:      "Total WebSocket frames processed",
	}, []string{"frame_type", "status"})

	FrameProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tabula",
		Subsystem: "websocket",
		Name:      "frame_processing_seconds",
		Help:      "Time spent processing an inbound frame",
		Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25},
	}, []string{"frame_type"})

	ReactionBurstsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tabula",
		Subsystem: "reaction",
		Name:      "bursts_emitted_total",
		Help:      "Total REACTION_BURST frames emitted",
	}, []string{"room_id"})

	DroppedFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tabula",
		Subsystem: "websocket",
		Name:      "dropped_frames_total",
		Help:      "Total frames dropped, by reason (slow_consumer: full per-connection outbound queue; bad_frame: undecodable inbound frame)",
	}, []string{"reason"})

	BoardGenRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tabula",
		Subsystem: "boardgen",
		Name:      "requests_total",
		Help:      "Total Board Generator requests, by outcome",
	}, []string{"outcome"})

	BoardGenDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tabula",
		Subsystem: "boardgen",
		Name:      "generation_seconds",
		Help:      "Time spent solving a Board Generator request",
		Buckets:   prometheus.DefBuckets,
	})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "tabula",
		Subsystem: "redis",
		Name:      "circuit_breaker_state",
		Help:      "Current state of the Redis circuit breaker (0: Closed, 1: Open, 2: Half-Open)",
	}, []string{"service"})

	CircuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tabula",
		Subsystem: "redis",
		Name:      "circuit_breaker_failures_total",
		Help:      "Total operations rejected by the Redis circuit breaker",
	}, []string{"service"})
)

func IncConnection() { ActiveWebSocketConnections.Inc() }
func DecConnection() { ActiveWebSocketConnections.Dec() }
