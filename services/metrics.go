package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the domain counters exposed on /metrics
type Metrics struct {
	OrdersPlaced    prometheus.Counter
	OrdersAmended   prometheus.Counter
	OrdersCancelled prometheus.Counter
	AuthFailures    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		OrdersPlaced: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "api",
			Name:      "orders_placed_total",
			Help:      "Orders placed",
		}),
		OrdersAmended: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "api",
			Name:      "orders_amended_total",
			Help:      "Orders amended",
		}),
		OrdersCancelled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "api",
			Name:      "orders_cancelled_total",
			Help:      "Orders cancelled",
		}),
		AuthFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "api",
			Name:      "auth_failures_total",
			Help:      "Rejected logins and bearer tokens",
		}, []string{"reason"}),
	}
}
