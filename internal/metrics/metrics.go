package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamchat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "teamchat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Realtime metrics
	ConnectionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "teamchat_connections_active",
			Help: "Currently admitted realtime connections",
		},
		[]string{"transport"}, // "ws" or "tcp"
	)

	UsersOnline = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "teamchat_users_online",
			Help: "Users with at least one live connection",
		},
	)

	PresenceEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamchat_presence_events_total",
			Help: "Presence transitions broadcast",
		},
		[]string{"state"}, // "online" or "offline"
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamchat_messages_total",
			Help: "Send attempts by outcome",
		},
		[]string{"outcome"}, // "broadcast", "invalid", "not_saved"
	)

	ReceiptsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamchat_receipts_total",
			Help: "Receipt acknowledgements by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	SlowConnectionsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "teamchat_slow_connections_dropped_total",
			Help: "Connections closed because their send queue was full",
		},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teamchat_rate_limit_hits_total",
			Help: "Inbound events rejected by the per-connection limiter",
		},
		[]string{"transport"},
	)
)

// GinMiddleware records request count and latency per route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
