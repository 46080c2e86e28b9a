package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestSchedulerMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSchedulerMetrics(reg)
	m.ObserveBooking("confirmed")
	m.ObserveCollisionRejection()
	m.HoldAdded()
	m.ObserveHoldRelease("expired")
	m.ObserveCheckoutLatency(0.25)
}

func TestSchedulerMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSchedulerMetrics(reg)
	m.ObserveBooking("in-progress")
}

func TestSchedulerMetricsNilSafe(t *testing.T) {
	var m *SchedulerMetrics
	m.ObserveBooking("confirmed")
	m.ObserveCollisionRejection()
	m.HoldAdded()
	m.ObserveHoldRelease("removed")
	m.ObserveCheckoutLatency(0.1)
}
