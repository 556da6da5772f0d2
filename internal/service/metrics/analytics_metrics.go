package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "agri",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of decision API endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	EndpointErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "agri",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by decision API endpoint",
		},
		[]string{"endpoint", "code"},
	)
)

func Register(reg prometheus.Registerer) {
	once.Do(func() {
		reg.MustRegister(EndpointLatency, EndpointErrors)
	})
}

// Observe records one endpoint call. code is empty on success.
func Observe(endpoint string, start time.Time, code string) {
	EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if code != "" {
		EndpointErrors.WithLabelValues(endpoint, code).Inc()
	}
}
