// Package metrics provides Prometheus instrumentation for the bus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentbus_http_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agentbus_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// Bus business metrics.
var (
	MessagesPosted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentbus_messages_posted_total",
		Help: "Total number of messages posted across all threads.",
	})

	ThreadsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agentbus_threads_created_total",
		Help: "Total number of threads created.",
	})

	ActiveWaiters = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agentbus_active_waiters",
		Help: "Number of msg_wait calls currently suspended.",
	})

	SSESubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agentbus_sse_subscribers",
		Help: "Number of open SSE subscriber connections.",
	})

	AgentsOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agentbus_agents_online",
		Help: "Number of agents currently considered online.",
	})

	InvitationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agentbus_invitations_total",
		Help: "Total number of agent.invite calls, by outcome.",
	}, []string{"ok"})
)

// QueueDropsTotal counts events dropped from a subscriber's bounded queue
// on overflow (§4.3, §7: "silent to the caller... logged at debug level").
var QueueDropsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "agentbus_event_queue_drops_total",
	Help: "Total number of events dropped from subscriber queues on overflow.",
})
