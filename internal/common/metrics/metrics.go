// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DispatchRecipients = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_recipients_total",
			Help: "Total number of per-recipient dispatch outcomes",
		},
		[]string{"operation", "status"},
	)

	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dispatch_duration_seconds",
			Help: "Duration of whole-batch dispatches in seconds",
		},
		[]string{"operation"},
	)

	DispatchesActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dispatches_active",
			Help: "Number of dispatch batches currently in flight",
		},
		[]string{"operation"},
	)

	GatewayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total number of upstream gateway requests",
		},
		[]string{"endpoint", "code"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "gateway_request_duration_seconds",
			Help: "Duration of upstream gateway requests in seconds",
		},
		[]string{"endpoint"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of API requests served",
		},
		[]string{"method", "path", "code"},
	)
)
