package supervisor

import "github.com/prometheus/client_golang/prometheus"

var (
	startsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "locallm",
			Subsystem: "supervisor",
			Name:      "starts_total",
			Help:      "Engine start attempts by result",
		},
		[]string{"result"},
	)

	healthProbesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "locallm",
			Subsystem: "supervisor",
			Name:      "health_probes_total",
			Help:      "Health probes issued while starting the engine",
		},
		[]string{"result"},
	)

	stateGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "locallm",
			Subsystem: "supervisor",
			Name:      "state",
			Help:      "1 for the supervisor's current state, 0 otherwise",
		},
		[]string{"state"},
	)
)

func init() {
	prometheus.MustRegister(startsTotal, healthProbesTotal, stateGauge)
}

func observeState(s State) {
	for _, st := range allStates {
		v := 0.0
		if st == s {
			v = 1
		}
		stateGauge.WithLabelValues(string(st)).Set(v)
	}
}
