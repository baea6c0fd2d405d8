package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	actionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "goofworld",
			Subsystem: "engine",
			Name:      "actions_total",
			Help:      "Player actions by type and outcome.",
		},
		[]string{"action", "outcome"},
	)
	ordersRevealed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "goofworld",
			Subsystem: "engine",
			Name:      "orders_revealed_total",
			Help:      "Orders revealed by layer.",
		},
		[]string{"layer"},
	)
	revealsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "goofworld",
			Subsystem: "engine",
			Name:      "reveals_expired_total",
			Help:      "Reveals cleared by the tick sweeper.",
		},
	)
	tickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "goofworld",
			Subsystem: "engine",
			Name:      "tick_duration_seconds",
			Help:      "Tick sweep duration including persistence and broadcast.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	persistenceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "goofworld",
			Name:      "persistence_failures_total",
			Help:      "Failed persistence calls by operation.",
		},
		[]string{"op"},
	)
	subscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "goofworld",
			Subsystem: "transport",
			Name:      "subscribers",
			Help:      "Connected snapshot subscribers.",
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "goofworld",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(actionsTotal, ordersRevealed, revealsExpired, tickDuration,
			persistenceFailures, subscribers, httpRequests)
	})
}

func RecordAction(action, outcome string) {
	RegisterMetrics()
	actionsTotal.WithLabelValues(action, outcome).Inc()
}

func RecordReveal(layer string, count int) {
	RegisterMetrics()
	ordersRevealed.WithLabelValues(layer).Add(float64(count))
}

func RecordTick(expired int, duration time.Duration) {
	RegisterMetrics()
	revealsExpired.Add(float64(expired))
	tickDuration.Observe(duration.Seconds())
}

func RecordPersistenceFailure(op string) {
	RegisterMetrics()
	persistenceFailures.WithLabelValues(op).Inc()
}

func SetSubscribers(n int) {
	RegisterMetrics()
	subscribers.Set(float64(n))
}

func RecordHTTPRequest(method, path string, status int) {
	RegisterMetrics()
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}
