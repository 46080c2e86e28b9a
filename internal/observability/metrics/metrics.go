package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulerMetrics exposes counters/gauges for booking and basket flows.
type SchedulerMetrics struct {
	bookingsTotal       *prometheus.CounterVec
	collisionRejections prometheus.Counter
	holdsActive         prometheus.Gauge
	holdReleases        *prometheus.CounterVec
	checkoutLatency     prometheus.Histogram
}

func NewSchedulerMetrics(reg prometheus.Registerer) *SchedulerMetrics {
	m := &SchedulerMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "appointments",
			Name:      "bookings_total",
			Help:      "Total appointments created, by initial status",
		}, []string{"status"}),
		collisionRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "appointments",
			Name:      "collision_rejections_total",
			Help:      "Bookings rejected because the slot overlaps an active appointment",
		}),
		holdsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scheduler",
			Subsystem: "basket",
			Name:      "holds_active",
			Help:      "Currently active basket holds",
		}),
		holdReleases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "basket",
			Name:      "hold_releases_total",
			Help:      "Basket holds released, by reason",
		}, []string{"reason"}),
		checkoutLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scheduler",
			Subsystem: "basket",
			Name:      "checkout_latency_seconds",
			Help:      "Latency of basket checkout including payment",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.collisionRejections, m.holdsActive, m.holdReleases, m.checkoutLatency)
	return m
}

func (m *SchedulerMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *SchedulerMetrics) ObserveCollisionRejection() {
	if m == nil {
		return
	}
	m.collisionRejections.Inc()
}

func (m *SchedulerMetrics) HoldAdded() {
	if m == nil {
		return
	}
	m.holdsActive.Inc()
}

// ObserveHoldRelease records a released hold; reason is one of
// "expired", "removed" or "checkout".
func (m *SchedulerMetrics) ObserveHoldRelease(reason string) {
	if m == nil {
		return
	}
	m.holdsActive.Dec()
	m.holdReleases.WithLabelValues(reason).Inc()
}

func (m *SchedulerMetrics) ObserveCheckoutLatency(seconds float64) {
	if m == nil {
		return
	}
	m.checkoutLatency.Observe(seconds)
}
