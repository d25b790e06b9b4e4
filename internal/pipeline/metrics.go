package pipeline

import "github.com/prometheus/client_golang/prometheus"

var (
	generateTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "locallm",
			Subsystem: "pipeline",
			Name:      "generate_total",
			Help:      "Generate calls by outcome",
		},
		[]string{"outcome"},
	)

	generateDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "locallm",
			Subsystem: "pipeline",
			Name:      "generate_duration_seconds",
			Help:      "Duration of generate calls in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"outcome"},
	)

	compressionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "locallm",
			Subsystem: "pipeline",
			Name:      "compressions_total",
			Help:      "Contexts that exceeded the threshold and were compressed",
		},
	)
)

func init() {
	prometheus.MustRegister(generateTotal, generateDuration, compressionsTotal)
}
