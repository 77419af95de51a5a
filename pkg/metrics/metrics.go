package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	BookingOutcomes *prometheus.CounterVec
	CommitAttempts  prometheus.Histogram

	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
	CacheFailOpen      prometheus.Counter
	CacheInvalidations *prometheus.CounterVec

	EventsDropped prometheus.Counter
}

func NewCollector(serviceName string) *Collector {
	return &Collector{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		BookingOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "booking",
			Name:      "outcomes_total",
			Help:      "Booking attempts by outcome (booked, slot_taken, conflict_exhausted, cancelled).",
		}, []string{"outcome"}),

		CommitAttempts: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "booking",
			Name:      "commit_attempts",
			Help:      "Commit attempts per booking. Values above 1 indicate store contention.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "availability_cache",
			Name:      "hits_total",
			Help:      "Availability reads served from cache.",
		}),

		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "availability_cache",
			Name:      "misses_total",
			Help:      "Availability reads that recomputed from live bookings.",
		}),

		CacheFailOpen: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "availability_cache",
			Name:      "fail_open_total",
			Help:      "Cache store faults degraded to recomputation. Alert on sustained growth.",
		}),

		CacheInvalidations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "availability_cache",
			Name:      "invalidations_total",
			Help:      "Cache invalidations by trigger (booking, cancellation, schedule_change).",
		}, []string{"trigger"}),

		EventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "events",
			Name:      "dropped_total",
			Help:      "Events dropped due to a full dispatch buffer. Alert if non-zero.",
		}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
