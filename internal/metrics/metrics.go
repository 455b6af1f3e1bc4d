package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"carrent/internal/domain"
	"carrent/internal/maps"
	"carrent/internal/wizard"
)

// BookingMetrics exposes counters for the booking wizard, the map
// subsystem and the HTTP layer. A nil *BookingMetrics is a no-op.
type BookingMetrics struct {
	availabilityTotal     *prometheus.CounterVec
	availabilityDiscarded prometheus.Counter
	bookingsSubmitted     *prometheus.CounterVec
	tileRequests          *prometheus.CounterVec
	tileFailovers         prometheus.Counter
	mapLoaderState        *prometheus.GaugeVec
	httpDuration          *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		availabilityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carrent",
			Subsystem: "wizard",
			Name:      "availability_responses_total",
			Help:      "Availability responses applied to a wizard session",
		}, []string{"outcome"}),
		availabilityDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "carrent",
			Subsystem: "wizard",
			Name:      "availability_discarded_total",
			Help:      "Availability responses dropped because a newer request was issued",
		}),
		bookingsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carrent",
			Subsystem: "wizard",
			Name:      "bookings_submitted_total",
			Help:      "Bookings submitted from the wizard",
		}, []string{"pickup_type"}),
		tileRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carrent",
			Subsystem: "maps",
			Name:      "tile_requests_total",
			Help:      "Tile proxy requests by outcome",
		}, []string{"outcome"}),
		tileFailovers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "carrent",
			Subsystem: "maps",
			Name:      "tile_failovers_total",
			Help:      "Switches from the primary to the alternate tile source",
		}),
		mapLoaderState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "carrent",
			Subsystem: "maps",
			Name:      "loader_state",
			Help:      "1 for the current map library loader state",
		}, []string{"state"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "carrent",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.availabilityTotal,
		m.availabilityDiscarded,
		m.bookingsSubmitted,
		m.tileRequests,
		m.tileFailovers,
		m.mapLoaderState,
		m.httpDuration,
	)
	return m
}

func (m *BookingMetrics) AvailabilityApplied(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.availabilityTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) AvailabilityDiscarded() {
	if m == nil {
		return
	}
	m.availabilityDiscarded.Inc()
}

func (m *BookingMetrics) BookingSubmitted(pickup domain.PickupType) {
	if m == nil {
		return
	}
	m.bookingsSubmitted.WithLabelValues(string(pickup)).Inc()
}

// ObserveTile records a tile proxy outcome: "hit", "fetched", "failed" or
// "aborted".
func (m *BookingMetrics) ObserveTile(outcome string) {
	if m == nil {
		return
	}
	m.tileRequests.WithLabelValues(outcome).Inc()
}

// TileSwitched matches maps.TileSource.OnSwitch.
func (m *BookingMetrics) TileSwitched(from, to string) {
	if m == nil {
		return
	}
	m.tileFailovers.Inc()
}

// LoaderTransition matches maps.WithStateHook.
func (m *BookingMetrics) LoaderTransition(from, to maps.LoadState) {
	if m == nil {
		return
	}
	m.mapLoaderState.WithLabelValues(from.String()).Set(0)
	m.mapLoaderState.WithLabelValues(to.String()).Set(1)
}

func (m *BookingMetrics) ObserveHTTP(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}

var _ wizard.Observer = (*BookingMetrics)(nil)
