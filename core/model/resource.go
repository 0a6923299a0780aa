package model

import "time"

// TractorState is the operational state of a tractor.
type TractorState string

const (
	TractorOperational TractorState = "OPERATIONAL"
	TractorMaintenance TractorState = "MAINTENANCE"
)

// Driver is a person who can be assigned to lines and trips.
type Driver struct {
	ID        string  `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	Active    bool    `json:"active" yaml:"active"`
	TractorID *string `json:"tractor_id,omitempty" yaml:"tractor_id,omitempty"`
}

// Tractor is a vehicle that a driver may be bound to.
type Tractor struct {
	ID     string       `json:"id" yaml:"id"`
	Plate  string       `json:"plate" yaml:"plate"`
	Active bool         `json:"active" yaml:"active"`
	State  TractorState `json:"state" yaml:"state"`
}

// RefKind names a reference directory.
type RefKind string

const (
	RefMaterial    RefKind = "material"
	RefClient      RefKind = "client"
	RefOrigin      RefKind = "origin"
	RefDestination RefKind = "destination"
)

// RefKinds lists every reference directory.
var RefKinds = []RefKind{RefMaterial, RefClient, RefOrigin, RefDestination}

// Ref is an entry of a reference directory (material, client, origin,
// destination).
type Ref struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Active bool   `json:"active" yaml:"active"`
}

// ResourceEventKind is the type of an unavailability interval.
type ResourceEventKind string

const (
	EventRest        ResourceEventKind = "REST"
	EventMaintenance ResourceEventKind = "MAINTENANCE"
)

// ResourceKind is the kind of resource a ResourceEvent applies to.
type ResourceKind string

const (
	ResourceDriver  ResourceKind = "DRIVER"
	ResourceTractor ResourceKind = "TRACTOR"
)

// ResourceEvent is an interval during which a driver or tractor is
// unavailable. End is nil while the interval is open.
type ResourceEvent struct {
	ID           int64             `json:"id"`
	Kind         ResourceEventKind `json:"kind"`
	ResourceKind ResourceKind      `json:"resource_kind"`
	ResourceID   string            `json:"resource_id"`
	Start        Date              `json:"start"`
	End          *Date             `json:"end,omitempty"`
	Note         string            `json:"note,omitempty"`
	CreatedBy    string            `json:"created_by"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Open reports whether the event has no end date.
func (e ResourceEvent) Open() bool { return e.End == nil }

// Contains reports whether d falls inside [Start, End], both inclusive.
// An open event contains every date from Start onwards.
func (e ResourceEvent) Contains(d Date) bool {
	if d.Before(e.Start) {
		return false
	}
	return e.End == nil || !d.After(*e.End)
}

// Days counts the days of the event that fall inside [from, to].
func (e ResourceEvent) Days(from, to Date) int {
	start := e.Start
	if start.Before(from) {
		start = from
	}
	end := to
	if e.End != nil && e.End.Before(to) {
		end = *e.End
	}
	return DaysBetween(start, end)
}
