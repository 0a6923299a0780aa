// Package store defines the persistence contracts used by the core
// services. Implementations live in infra/sqlstore.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/fleetops/core/model"
)

var (
	// ErrNotFound is returned when a lookup by identity matches no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate")
)

// MasterRepo reads and writes the reference directories.
type MasterRepo interface {
	GetDriver(ctx context.Context, id string) (model.Driver, error)
	ListDrivers(ctx context.Context, activeOnly bool) ([]model.Driver, error)
	UpsertDriver(ctx context.Context, d model.Driver) error
	// SetDriverTractor binds a driver to tractorID, or unbinds it when nil.
	SetDriverTractor(ctx context.Context, driverID string, tractorID *string) error
	// UnbindTractor clears the tractor from every driver bound to it.
	UnbindTractor(ctx context.Context, tractorID string) (int64, error)
	// DriverForTractor returns the active driver bound to tractorID.
	DriverForTractor(ctx context.Context, tractorID string) (model.Driver, error)

	GetTractor(ctx context.Context, id string) (model.Tractor, error)
	ListTractors(ctx context.Context, activeOnly bool) ([]model.Tractor, error)
	UpsertTractor(ctx context.Context, t model.Tractor) error
	SetTractorState(ctx context.Context, id string, state model.TractorState) error

	GetRef(ctx context.Context, kind model.RefKind, id string) (model.Ref, error)
	ListRefs(ctx context.Context, kind model.RefKind) ([]model.Ref, error)
	UpsertRef(ctx context.Context, kind model.RefKind, r model.Ref) error
}

// ResourceEventFilter narrows ListResourceEvents. Zero fields match all.
type ResourceEventFilter struct {
	Kind         model.ResourceEventKind
	ResourceKind model.ResourceKind
	ResourceID   string
	// Overlapping keeps events whose interval intersects [From, To].
	From, To model.Date
	OpenOnly bool
}

// ResourceRepo stores rest periods and maintenance windows.
type ResourceRepo interface {
	InsertResourceEvent(ctx context.Context, ev model.ResourceEvent) (int64, error)
	GetResourceEvent(ctx context.Context, id int64) (model.ResourceEvent, error)
	CloseResourceEvent(ctx context.Context, id int64, end model.Date) error
	// CoveringEvents returns the events of the resource whose interval
	// contains date, oldest first.
	CoveringEvents(ctx context.Context, rk model.ResourceKind, resourceID string, date model.Date) ([]model.ResourceEvent, error)
	ListResourceEvents(ctx context.Context, f ResourceEventFilter) ([]model.ResourceEvent, error)
}

// LineFilter narrows line listings. Zero fields match all.
type LineFilter struct {
	From, To model.Date
	Origin   model.LineOrigin
	Statuses []model.LineStatus
	DriverID string
}

// LineRepo stores planned and off-plan lines.
type LineRepo interface {
	// InsertLine returns ErrDuplicate when a PLAN line already exists for
	// the same (date, driver).
	InsertLine(ctx context.Context, l model.Line) (int64, error)
	GetLine(ctx context.Context, id int64) (model.Line, error)
	ListLines(ctx context.Context, f LineFilter) ([]model.Line, error)
	CountLines(ctx context.Context, f LineFilter) (int, error)
	// TransitionLine moves the line to `to` only if its current status is in
	// `from`. It reports whether a row changed.
	TransitionLine(ctx context.Context, id int64, from []model.LineStatus, to model.LineStatus) (bool, error)
	// TransitionLines applies the same conditional update to every line
	// matching f and returns the number of rows changed.
	TransitionLines(ctx context.Context, f LineFilter, to model.LineStatus) (int64, error)
	UpdateLine(ctx context.Context, l model.Line) error
	DeleteLine(ctx context.Context, id int64) error
}

// TripFilter narrows trip listings. Zero fields match all.
type TripFilter struct {
	From, To model.Date
	Statuses []model.TripStatus
	DriverID string
	ClientID string
}

// TripRepo stores trips.
type TripRepo interface {
	// InsertTrip returns ErrDuplicate when a trip already references the line.
	InsertTrip(ctx context.Context, t model.Trip) (int64, error)
	GetTrip(ctx context.Context, id int64) (model.Trip, error)
	TripForLine(ctx context.Context, lineID int64) (model.Trip, error)
	ListTrips(ctx context.Context, f TripFilter) ([]model.Trip, error)
	// FinalizeTrip moves a CONFIRMED trip to FINALIZED and reports whether a
	// row changed.
	FinalizeTrip(ctx context.Context, id int64, actor string, at time.Time) (bool, error)
}

// TripEventFilter narrows global trip event searches.
type TripEventFilter struct {
	From, To model.Date
	Kind     model.EventKind
	DriverID string
	ClientID string
}

// TripEventView is a trip event joined with its trip.
type TripEventView struct {
	model.TripEvent
	Date     model.Date `json:"date"`
	DriverID string     `json:"driver_id"`
	ClientID string     `json:"client_id"`
}

// TripEventRepo stores trip events.
type TripEventRepo interface {
	InsertTripEvent(ctx context.Context, e model.TripEvent) (int64, error)
	ListTripEvents(ctx context.Context, tripID int64) ([]model.TripEvent, error)
	SearchTripEvents(ctx context.Context, f TripEventFilter) ([]TripEventView, error)
}

// TemplateRepo stores trip templates.
type TemplateRepo interface {
	InsertTemplate(ctx context.Context, t model.Template) (int64, error)
	GetTemplate(ctx context.Context, id int64) (model.Template, error)
	ListTemplates(ctx context.Context, activeOnly bool) ([]model.Template, error)
	DeactivateTemplate(ctx context.Context, id int64) (bool, error)
}

// Repo groups every repository. Inside Store.InTx all calls share one
// transaction.
type Repo interface {
	MasterRepo
	ResourceRepo
	LineRepo
	TripRepo
	TripEventRepo
	TemplateRepo
}

// Store is a Repo bound to a database handle that can open transactions.
type Store interface {
	Repo
	// InTx runs fn inside one transaction, committing when fn returns nil.
	// fn must use the Repo it is given, never the Store itself.
	InTx(ctx context.Context, fn func(Repo) error) error
	// Migrate creates the schema if it does not exist.
	Migrate(ctx context.Context) error
	Close() error
}
