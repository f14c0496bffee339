// The metrics package defines the Prometheus collectors of the walk.
// They are registered on the default registry by promauto.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "botpop"

var (
	Steps = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "walk",
		Name:      "steps_total",
		Help:      "Number of samples recorded by the walk.",
	})

	Backtracks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "walk",
		Name:      "backtracks_total",
		Help:      "Number of times the walk went back to the predecessor after a failed exploration.",
	})

	FetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "walk",
		Name:      "fetch_failures_total",
		Help:      "Number of failed neighbor fetches, by relation.",
	}, []string{"relation"})

	SelectionQueries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "selector",
		Name:      "queries_total",
		Help:      "Number of visibility queries issued while selecting the next node.",
	})

	SelectionExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "selector",
		Name:      "exhausted_total",
		Help:      "Number of selections that ran out of query budget.",
	})

	ClassificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "classifier",
		Name:      "failures_total",
		Help:      "Number of nodes that got the sentinel score.",
	})

	ExploredNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "walk",
		Name:      "explored_nodes",
		Help:      "Number of distinct nodes explored by the walk.",
	})

	BotPopulation = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "estimator",
		Name:      "bot_population",
		Help:      "Current estimate of the fraction of bots.",
	})
)

// Handler() returns the HTTP handler that exposes the metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
