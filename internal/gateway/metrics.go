package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics считает исходящие запросы к API.
type Metrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	unauthorized *prometheus.CounterVec
}

// NewMetrics регистрирует метрики в reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon_admin",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Outgoing API requests by method and status code.",
		}, []string{"method", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "salon_admin",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Outgoing API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		unauthorized: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon_admin",
			Subsystem: "gateway",
			Name:      "unauthorized_total",
			Help:      "401 responses by policy class.",
		}, []string{"class"}),
	}
}
