package health

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics are recorded by the metrics middleware, labelled by route pattern
type HTTPMetrics struct {
	Duration *prometheus.HistogramVec
	Requests *prometheus.CounterVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	factory := promauto.With(reg)

	return &HTTPMetrics{
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "api",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "api",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
	}
}
