// Package telemetry registers the dispatch engine's Prometheus metrics: the
// small counter/gauge/histogram set a dispatch decision loop needs to expose
// its trip planning, inline insertions, and stale reclaims.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "dispatch"
	carLabel  = "car"
)

var (
	tripsPlanned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: namespace + "_trips_planned_total",
			Help: "Number of Trips planned for a car.",
		},
		[]string{carLabel},
	)

	inlineInsertions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: namespace + "_inline_insertions_total",
			Help: "Number of requests picked up via the Inline Insertion Protocol.",
		},
		[]string{carLabel},
	)

	staleReclaims = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: namespace + "_stale_reclaims_total",
			Help: "Number of assignments reclaimed by the stale-reclaim policy.",
		},
	)

	pendingRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: namespace + "_pending_requests",
			Help: "Current number of outstanding, undelivered requests.",
		},
	)

	tickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    namespace + "_tick_duration_seconds",
			Help:    "Wall-clock time spent processing one tick's events.",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)
)

func init() {
	prometheus.MustRegister(tripsPlanned, inlineInsertions, staleReclaims, pendingRequests, tickDuration)
}

// TripPlanned records that a Trip was planned for carID.
func TripPlanned(carID string) {
	tripsPlanned.With(prometheus.Labels{carLabel: carID}).Inc()
}

// InlineInsertion records a successful Inline Insertion Protocol commit.
func InlineInsertion(carID string) {
	inlineInsertions.With(prometheus.Labels{carLabel: carID}).Inc()
}

// StaleReclaim records one assignment reclaimed by the stale-reclaim policy.
func StaleReclaim() {
	staleReclaims.Inc()
}

// SetPendingRequests sets the current outstanding-request gauge.
func SetPendingRequests(n int) {
	pendingRequests.Set(float64(n))
}

// ObserveTickDuration records how long one tick's event processing took.
func ObserveTickDuration(seconds float64) {
	tickDuration.Observe(seconds)
}
