package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boosterd",
			Subsystem: "scheduler",
			Name:      "requests_total",
			Help:      "Request lifecycle transitions by pod and state.",
		},
		[]string{"pod", "state"},
	)
	tokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boosterd",
			Subsystem: "scheduler",
			Name:      "tokens_total",
			Help:      "Generated tokens by pod.",
		},
		[]string{"pod"},
	)
	queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "boosterd",
			Subsystem: "scheduler",
			Name:      "queue_depth",
			Help:      "Requests waiting in pod queues.",
		},
		[]string{"pod"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, tokensTotal, queueDepth)
}
