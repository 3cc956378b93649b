package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes evaluation outcomes to Prometheus.
type Recorder struct {
	evaluations  *prometheus.CounterVec
	allocation   *prometheus.GaugeVec
	sourceErrors prometheus.Counter
	orders       *prometheus.CounterVec
	duration     prometheus.Histogram
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		evaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macroalloc_evaluations_total",
				Help: "Evaluation cycles by decision reason",
			},
			[]string{"reason"},
		),
		allocation: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "macroalloc_allocation_fraction",
				Help: "Target fraction of capital from the last evaluation",
			},
			[]string{"instrument"},
		),
		sourceErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "macroalloc_source_errors_total",
				Help: "Series source failures",
			},
		),
		orders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macroalloc_orders_total",
				Help: "Rebalance outcomes by result",
			},
			[]string{"result"},
		),
		duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "macroalloc_evaluation_duration_seconds",
				Help:    "Duration of evaluation cycles in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

func (r *Recorder) RecordEvaluation(reason string, allocation map[string]float64) {
	r.evaluations.WithLabelValues(reason).Inc()
	for instrument, fraction := range allocation {
		r.allocation.WithLabelValues(instrument).Set(fraction)
	}
}

func (r *Recorder) RecordSourceError() {
	r.sourceErrors.Inc()
}

func (r *Recorder) RecordOrder(result string) {
	r.orders.WithLabelValues(result).Inc()
}

func (r *Recorder) RecordDuration(seconds float64) {
	r.duration.Observe(seconds)
}
