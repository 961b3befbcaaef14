package relay

import "github.com/prometheus/client_golang/prometheus"

var (
	fragmentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatd",
			Subsystem: "relay",
			Name:      "fragments_total",
			Help:      "Text fragments relayed to callers, including fault markers",
		},
	)

	skippedLinesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatd",
			Subsystem: "relay",
			Name:      "skipped_lines_total",
			Help:      "Backend stream lines that could not be decoded",
		},
	)

	streamsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatd",
			Subsystem: "relay",
			Name:      "streams_total",
			Help:      "Relayed streams by terminal state",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(fragmentsTotal, skippedLinesTotal, streamsTotal)
}
