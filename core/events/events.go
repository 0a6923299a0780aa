package events

import (
	"fmt"
	"time"

	"github.com/kilianp07/fleetops/core/model"
)

// Event is anything published on the lifecycle bus. Topic is a slash
// separated routing key used by the MQTT bridge.
type Event interface {
	Topic() string
}

// Publisher accepts lifecycle events.
type Publisher interface {
	Publish(Event)
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}

// OrNop returns p, or a NopPublisher when p is nil.
func OrNop(p Publisher) Publisher {
	if p == nil {
		return NopPublisher{}
	}
	return p
}

// Line actions.
const (
	LineCreated   = "created"
	LineConfirmed = "confirmed"
	LineCancelled = "cancelled"
	LineUpdated   = "updated"
	LineDeleted   = "deleted"
	LineTripped   = "trip_generated"
)

// PlanGenerated summarizes a generator run.
type PlanGenerated struct {
	WeekStart model.Date     `json:"week_start"`
	Created   int            `json:"created"`
	Skipped   int            `json:"skipped"`
	Reasons   map[string]int `json:"reasons"`
	Actor     string         `json:"actor"`
	At        time.Time      `json:"at"`
}

func (PlanGenerated) Topic() string { return "plan/generated" }

// LineChanged reports a line transition. From is empty on creation.
type LineChanged struct {
	Action string           `json:"action"`
	From   model.LineStatus `json:"from,omitempty"`
	Line   model.Line       `json:"line"`
	Actor  string           `json:"actor"`
	At     time.Time        `json:"at"`
}

func (e LineChanged) Topic() string { return fmt.Sprintf("lines/%d/%s", e.Line.ID, e.Action) }

// LinesFrozen reports a week freeze.
type LinesFrozen struct {
	WeekStart model.Date `json:"week_start"`
	Confirmed int        `json:"confirmed"`
	Actor     string     `json:"actor"`
	At        time.Time  `json:"at"`
}

func (LinesFrozen) Topic() string { return "plan/frozen" }

// Trip actions.
const (
	TripCreated   = "created"
	TripFinalized = "finalized"
)

// TripChanged reports a trip creation or finalization.
type TripChanged struct {
	Action string     `json:"action"`
	Trip   model.Trip `json:"trip"`
	Actor  string     `json:"actor"`
	At     time.Time  `json:"at"`
}

func (e TripChanged) Topic() string { return fmt.Sprintf("trips/%d/%s", e.Trip.ID, e.Action) }

// TripEventRecorded reports a new trip event.
type TripEventRecorded struct {
	Event           model.TripEvent `json:"event"`
	DurationMinutes int             `json:"duration_minutes"`
	Actor           string          `json:"actor"`
}

func (e TripEventRecorded) Topic() string {
	return fmt.Sprintf("trips/%d/events/%s", e.Event.TripID, e.Event.Kind)
}

// Resource actions.
const (
	RestStarted         = "rest_started"
	RestFinished        = "rest_finished"
	MaintenanceStarted  = "maintenance_started"
	MaintenanceFinished = "maintenance_finished"
	TractorBound        = "tractor_bound"
	TractorUnbound      = "tractor_unbound"
)

// ResourceChanged reports an availability change.
type ResourceChanged struct {
	Action     string             `json:"action"`
	Kind       model.ResourceKind `json:"resource_kind"`
	ResourceID string             `json:"resource_id"`
	EventID    int64              `json:"event_id,omitempty"`
	// Released is the tractor freed as a side effect, if any.
	Released string    `json:"released,omitempty"`
	Actor    string    `json:"actor"`
	At       time.Time `json:"at"`
}

func (e ResourceChanged) Topic() string {
	return fmt.Sprintf("resources/%s/%s/%s", e.Kind, e.ResourceID, e.Action)
}
