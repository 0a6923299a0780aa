package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/fleetops/core/metrics"
)

// PromSink records fleet activity in Prometheus metrics.
type PromSink struct {
	lines     *prometheus.CounterVec
	planned   prometheus.Counter
	skipped   *prometheus.CounterVec
	frozen    prometheus.Counter
	trips     *prometheus.CounterVec
	delays    *prometheus.HistogramVec
	resources *prometheus.CounterVec
}

// NewPromSink registers the metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Metrics
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetops_line_transitions_total",
			Help: "Line lifecycle transitions",
		}, []string{"action", "origin"}),
		planned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetops_plan_lines_created_total",
			Help: "Lines created by the weekly plan generator",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetops_plan_skipped_total",
			Help: "Driver days skipped by the weekly plan generator",
		}, []string{"reason"}),
		frozen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fleetops_plan_lines_frozen_total",
			Help: "Lines confirmed by week freezes",
		}),
		trips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetops_trips_total",
			Help: "Trip lifecycle transitions",
		}, []string{"action", "has_tractor"}),
		delays: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fleetops_trip_event_minutes",
			Help:    "Duration of recorded trip events",
			Buckets: []float64{5, 10, 15, 30, 45, 60, 90, 120, 240},
		}, []string{"kind"}),
		resources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetops_resource_changes_total",
			Help: "Rest, maintenance and binding changes",
		}, []string{"action", "resource_kind"}),
	}
	var err error
	if s.lines, err = register(reg, s.lines); err != nil {
		return nil, err
	}
	if s.planned, err = register(reg, s.planned); err != nil {
		return nil, err
	}
	if s.skipped, err = register(reg, s.skipped); err != nil {
		return nil, err
	}
	if s.frozen, err = register(reg, s.frozen); err != nil {
		return nil, err
	}
	if s.trips, err = register(reg, s.trips); err != nil {
		return nil, err
	}
	if s.delays, err = register(reg, s.delays); err != nil {
		return nil, err
	}
	if s.resources, err = register(reg, s.resources); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordLine counts a line transition.
func (s *PromSink) RecordLine(ev coremetrics.LineEvent) error {
	s.lines.WithLabelValues(ev.Action, string(ev.Origin)).Inc()
	return nil
}

// RecordPlan adds the created and skipped counts of a generator run, or
// the confirmed count of a freeze.
func (s *PromSink) RecordPlan(ev coremetrics.PlanEvent) error {
	s.planned.Add(float64(ev.Created))
	for reason, n := range ev.Reasons {
		s.skipped.WithLabelValues(reason).Add(float64(n))
	}
	s.frozen.Add(float64(ev.Frozen))
	return nil
}

// RecordTrip counts a trip transition.
func (s *PromSink) RecordTrip(ev coremetrics.TripEvent) error {
	s.trips.WithLabelValues(ev.Action, strconv.FormatBool(ev.HasTractor)).Inc()
	return nil
}

// RecordDelay observes the event duration.
func (s *PromSink) RecordDelay(ev coremetrics.DelayEvent) error {
	s.delays.WithLabelValues(string(ev.Kind)).Observe(float64(ev.Minutes))
	return nil
}

// RecordResource counts an availability change.
func (s *PromSink) RecordResource(ev coremetrics.ResourceEvent) error {
	s.resources.WithLabelValues(ev.Action, string(ev.Kind)).Inc()
	return nil
}
