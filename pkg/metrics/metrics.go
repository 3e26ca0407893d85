package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Fetch metrics
	FetchAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetglass_fetch_attempts_total",
			Help: "Total number of source fetch attempts by family, source and outcome",
		},
		[]string{"family", "source", "outcome"},
	)

	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleetglass_fetch_duration_seconds",
			Help:    "Full fetch cycle duration in seconds by family",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"family"},
	)

	ChainFallthroughsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetglass_chain_fallthroughs_total",
			Help: "Total number of source chain fallthroughs by family and failed source",
		},
		[]string{"family", "source"},
	)

	// Cache metrics
	CacheResetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetglass_cache_resets_total",
			Help: "Total number of cache reset broadcasts by family",
		},
		[]string{"family"},
	)

	RefetchBroadcastsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetglass_refetch_broadcasts_total",
			Help: "Total number of refetch-all broadcasts",
		},
	)

	CellItems = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fleetglass_cell_items",
			Help: "Current number of items held per cache cell",
		},
		[]string{"key"},
	)

	CellFailures = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fleetglass_cell_consecutive_failures",
			Help: "Current consecutive failure count per cache cell",
		},
		[]string{"key"},
	)

	// Hook metrics
	HooksActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fleetglass_hooks_active",
			Help: "Number of currently mounted hook instances",
		},
	)

	PollTicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetglass_poll_ticks_total",
			Help: "Total number of poll scheduler ticks by family",
		},
		[]string{"family"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(FetchAttemptsTotal)
	prometheus.MustRegister(FetchDuration)
	prometheus.MustRegister(ChainFallthroughsTotal)
	prometheus.MustRegister(CacheResetsTotal)
	prometheus.MustRegister(RefetchBroadcastsTotal)
	prometheus.MustRegister(CellItems)
	prometheus.MustRegister(CellFailures)
	prometheus.MustRegister(HooksActive)
	prometheus.MustRegister(PollTicksTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer provides a simple way to time operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer starting now
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time in the given histogram
func (t *Timer) ObserveDuration(h prometheus.Observer) {
	h.Observe(t.Duration().Seconds())
}
