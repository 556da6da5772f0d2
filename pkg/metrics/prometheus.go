package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	forecasts      *prometheus.CounterVec
	decisions      *prometheus.CounterVec
	profitIndex    prometheus.Histogram
	historySources *prometheus.CounterVec
	ingested       *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		forecasts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agri_forecasts_total",
				Help: "Recursive forecasts produced, by commodity",
			},
			[]string{"commodity", "steps"},
		),
		decisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agri_decisions_total",
				Help: "Sell/wait decisions issued",
			},
			[]string{"decision"},
		),
		profitIndex: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "agri_profit_index",
				Help:    "Distribution of issued profit index values",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		historySources: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agri_history_source_total",
				Help: "History lookups by provenance and fallback reason",
			},
			[]string{"source", "reason"},
		),
		ingested: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agri_prices_ingested_total",
				Help: "Price rows written, by backend",
			},
			[]string{"backend"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agri_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agri_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordForecast(commodity string, steps int) {
	r.forecasts.WithLabelValues(commodity, strconv.Itoa(steps)).Inc()
}

func (r *Recorder) RecordDecision(decision string, profitIndex int) {
	r.decisions.WithLabelValues(decision).Inc()
	r.profitIndex.Observe(float64(profitIndex))
}

func (r *Recorder) RecordHistorySource(source, reason string) {
	if reason == "" {
		reason = "none"
	}
	r.historySources.WithLabelValues(source, reason).Inc()
}

func (r *Recorder) RecordIngested(backend string, rows int) {
	r.ingested.WithLabelValues(backend).Add(float64(rows))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordForecast(string, int)         {}
func (Nop) RecordDecision(string, int)         {}
func (Nop) RecordHistorySource(string, string) {}
func (Nop) RecordIngested(string, int)         {}
func (Nop) RecordError(string)                 {}
func (Nop) RecordLatency(string, float64)      {}
