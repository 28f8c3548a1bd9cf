package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics.
var (
	MatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matches_made_total",
			Help: "The total number of random-chat pairings made",
		},
	)

	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_sent_total",
			Help: "The total number of chat messages processed, by filter action",
		},
		[]string{"action"},
	)

	SessionsEndedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_ended_total",
			Help: "The total number of sessions ended, by reason",
		},
		[]string{"reason"},
	)

	ReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_submitted_total",
			Help: "The total number of user reports submitted, by reason",
		},
		[]string{"reason"},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "The total number of actions rejected by the rate limiter, by action",
		},
		[]string{"action"},
	)
)
