package model

import (
	"strings"
	"time"
)

// TripStatus is the state of a trip.
type TripStatus string

const (
	TripConfirmed TripStatus = "CONFIRMED"
	TripFinalized TripStatus = "FINALIZED"
)

// Trip is the executed unit of work generated from a line.
type Trip struct {
	ID            int64      `json:"id"`
	LineID        *int64     `json:"line_id,omitempty"`
	Date          Date       `json:"date"`
	DriverID      string     `json:"driver_id"`
	TractorID     *string    `json:"tractor_id,omitempty"`
	MaterialID    string     `json:"material_id"`
	ClientID      string     `json:"client_id"`
	OriginID      string     `json:"origin_id"`
	DestinationID string     `json:"destination_id"`
	TemplateID    *int64     `json:"template_id,omitempty"`
	LineOrigin    LineOrigin `json:"line_origin,omitempty"`
	Status        TripStatus `json:"status"`
	Note          string     `json:"note,omitempty"`
	CreatedBy     string     `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	FinalizedBy   string     `json:"finalized_by,omitempty"`
	FinalizedAt   *time.Time `json:"finalized_at,omitempty"`
}

// EventKind classifies a trip event. Any non-empty kind is accepted; the
// delay kinds below are aggregated separately.
type EventKind string

const (
	LoadDelay   EventKind = "LOAD_DELAY"
	UnloadDelay EventKind = "UNLOAD_DELAY"
	DriverDelay EventKind = "DRIVER_DELAY"
)

// DelayKinds lists the reserved delay kinds in reporting order.
var DelayKinds = []EventKind{LoadDelay, UnloadDelay, DriverDelay}

// NormalizeEventKind upper-cases k and joins words with underscores.
func NormalizeEventKind(k string) EventKind {
	return EventKind(strings.Join(strings.Fields(strings.ToUpper(k)), "_"))
}

// IsDelay reports whether k is one of the reserved delay kinds.
func (k EventKind) IsDelay() bool {
	for _, d := range DelayKinds {
		if k == d {
			return true
		}
	}
	return false
}

// TripEvent is a timestamped operational event recorded against a trip.
type TripEvent struct {
	ID        int64      `json:"id"`
	TripID    int64      `json:"trip_id"`
	Kind      EventKind  `json:"kind"`
	Start     time.Time  `json:"start"`
	End       *time.Time `json:"end,omitempty"`
	Note      string     `json:"note,omitempty"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
}

// DurationMinutes is the whole number of minutes between start and end, or
// zero when the end is missing.
func (e TripEvent) DurationMinutes() int {
	if e.End == nil || !e.End.After(e.Start) {
		return 0
	}
	return int(e.End.Sub(e.Start) / time.Minute)
}

// Template holds default trip fields applied at confirmation time.
type Template struct {
	ID            int64   `json:"id" yaml:"-"`
	Name          string  `json:"name" yaml:"name"`
	MaterialID    string  `json:"material_id" yaml:"material_id"`
	ClientID      *string `json:"client_id,omitempty" yaml:"client_id,omitempty"`
	OriginID      *string `json:"origin_id,omitempty" yaml:"origin_id,omitempty"`
	DestinationID *string `json:"destination_id,omitempty" yaml:"destination_id,omitempty"`
	Note          string  `json:"note,omitempty" yaml:"note,omitempty"`
	Active        bool    `json:"active" yaml:"active"`
}
