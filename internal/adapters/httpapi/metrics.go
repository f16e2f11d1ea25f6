package httpapi

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	processRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_gateway_process_requests_total",
			Help: "Total number of process requests by outcome",
		},
		[]string{"status"},
	)
	processDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ai_gateway_process_duration_milliseconds",
			Help:    "Process request duration in milliseconds",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000, 10000},
		},
	)
	segmentFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_gateway_segment_failures_total",
			Help: "Total number of degraded backend segments",
		},
		[]string{"segment"},
	)
)

// metricsOnce ensures metrics are registered only once
var metricsOnce sync.Once

func registerMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(processRequests)
		prometheus.MustRegister(processDuration)
		prometheus.MustRegister(segmentFailures)
	})
}
