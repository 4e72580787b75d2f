package forwardsarsa

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "forwardsarsa"

// Metrics counts the learning updates made by a ForwardSarsa agent
type Metrics struct {
	Fits     prometheus.Counter
	Skips    prometheus.Counter
	Episodes prometheus.Counter
	Epsilon  prometheus.Gauge
	Makespan prometheus.Histogram
}

// NewMetrics creates the metrics and registers them with reg. A nil reg
// creates unregistered metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Fits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fits_total",
			Help:      "Learning updates applied to the approximator",
		}),
		Skips: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fit_skips_total",
			Help:      "Learning updates rejected by the approximator",
		}),
		Episodes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "episodes_total",
			Help:      "Episodes run to completion",
		}),
		Epsilon: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "epsilon",
			Help:      "Exploration rate of the latest episode",
		}),
		Makespan: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "makespan",
			Help:      "Total scheduling time of completed episodes",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}
