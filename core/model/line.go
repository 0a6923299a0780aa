package model

import "time"

// LineOrigin tells how a line was created.
type LineOrigin string

const (
	OriginPlan    LineOrigin = "PLAN"
	OriginOffPlan LineOrigin = "OFF_PLAN"
)

// LineStatus is the state of a planned line.
type LineStatus string

const (
	LinePending       LineStatus = "PENDING"
	LineConfirmed     LineStatus = "CONFIRMED"
	LineCancelled     LineStatus = "CANCELLED"
	LineTripGenerated LineStatus = "TRIP_GENERATED"
)

// Terminal reports whether no further transition is allowed.
func (s LineStatus) Terminal() bool {
	return s == LineCancelled || s == LineTripGenerated
}

// Valid reports whether s is a known status.
func (s LineStatus) Valid() bool {
	switch s {
	case LinePending, LineConfirmed, LineCancelled, LineTripGenerated:
		return true
	}
	return false
}

// Line is a unit of work for one driver on one date, before execution.
type Line struct {
	ID         int64      `json:"id"`
	Date       Date       `json:"date"`
	DriverID   string     `json:"driver_id"`
	MaterialID string     `json:"material_id"`
	TractorID  *string    `json:"tractor_id,omitempty"`
	Origin     LineOrigin `json:"origin"`
	Status     LineStatus `json:"status"`
	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
