package metrics

import (
	"time"

	"github.com/kilianp07/fleetops/core/model"
)

// LineEvent is a line transition.
type LineEvent struct {
	Action     string
	Origin     model.LineOrigin
	Status     model.LineStatus
	MaterialID string
	Time       time.Time
}

// MetricsSink records line transitions. Sinks may implement the optional
// recorder interfaces below for the other activity.
type MetricsSink interface {
	RecordLine(ev LineEvent) error
}

// PlanEvent summarizes one generator run or week freeze.
type PlanEvent struct {
	WeekStart model.Date
	Created   int
	Skipped   int
	Reasons   map[string]int
	Frozen    int
	Time      time.Time
}

// PlanRecorder records plan activity.
type PlanRecorder interface {
	RecordPlan(ev PlanEvent) error
}

// TripEvent is a trip creation or finalization.
type TripEvent struct {
	Action     string
	MaterialID string
	ClientID   string
	HasTractor bool
	Time       time.Time
}

// TripRecorder records trip activity.
type TripRecorder interface {
	RecordTrip(ev TripEvent) error
}

// DelayEvent is one recorded trip event with its duration.
type DelayEvent struct {
	TripID  int64
	Kind    model.EventKind
	Minutes int
	Time    time.Time
}

// DelayRecorder records trip events.
type DelayRecorder interface {
	RecordDelay(ev DelayEvent) error
}

// ResourceEvent is an availability change of a driver or tractor.
type ResourceEvent struct {
	Action     string
	Kind       model.ResourceKind
	ResourceID string
	Time       time.Time
}

// ResourceRecorder records availability changes.
type ResourceRecorder interface {
	RecordResource(ev ResourceEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordLine(LineEvent) error         { return nil }
func (NopSink) RecordPlan(PlanEvent) error         { return nil }
func (NopSink) RecordTrip(TripEvent) error         { return nil }
func (NopSink) RecordDelay(DelayEvent) error       { return nil }
func (NopSink) RecordResource(ResourceEvent) error { return nil }
