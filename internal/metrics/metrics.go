// Package metrics provides Prometheus metrics for the matchmaking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LikesTotal tracks plain likes by outcome (pending, match)
	LikesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leomatch",
			Subsystem: "engine",
			Name:      "likes_total",
			Help:      "Total number of likes by outcome",
		},
		[]string{"outcome"},
	)

	// MatchesCreatedTotal counts newly detected matches (once per pair)
	MatchesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "leomatch",
			Subsystem: "engine",
			Name:      "matches_created_total",
			Help:      "Total number of matches detected",
		},
	)

	// SuperLikesTotal tracks super-likes by result (charged, repeat, insufficient)
	SuperLikesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leomatch",
			Subsystem: "engine",
			Name:      "superlikes_total",
			Help:      "Total number of super-like attempts by result",
		},
		[]string{"result"},
	)

	// CreditsGrantedTotal sums purchased super-like credits
	CreditsGrantedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "leomatch",
			Subsystem: "engine",
			Name:      "credits_granted_total",
			Help:      "Total number of super-like credits granted",
		},
	)

	// CandidatesServedTotal counts candidates handed to browsing sessions
	CandidatesServedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "leomatch",
			Subsystem: "engine",
			Name:      "candidates_served_total",
			Help:      "Total number of candidate profiles served",
		},
	)

	// StorageRetriesTotal tracks retried storage operations
	StorageRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leomatch",
			Subsystem: "storage",
			Name:      "retries_total",
			Help:      "Total number of retried storage operations",
		},
		[]string{"op"},
	)

	// OperationDuration tracks engine operation latency in seconds
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "leomatch",
			Subsystem: "engine",
			Name:      "operation_duration_seconds",
			Help:      "Duration of engine operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"op"},
	)

	// EventsPublishedTotal tracks event delivery by type and status
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leomatch",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of events published by type and status",
		},
		[]string{"type", "status"},
	)

	// GRPCRequestsTotal tracks gRPC calls by method and status code
	GRPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leomatch",
			Subsystem: "grpc",
			Name:      "requests_total",
			Help:      "Total number of gRPC requests by method and code",
		},
		[]string{"method", "code"},
	)
)
