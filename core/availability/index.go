// Package availability answers whether drivers and tractors can be assigned
// on a date and runs the rest, maintenance and binding workflows that change
// the answer.
package availability

import (
	"context"

	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/store"
)

// Reason explains why a resource is unavailable. The zero value means
// available.
type Reason string

const (
	ReasonRest        Reason = "REST"
	ReasonMaintenance Reason = "MAINTENANCE"
)

func reasonOf(k model.ResourceEventKind) Reason {
	if k == model.EventMaintenance {
		return ReasonMaintenance
	}
	return ReasonRest
}

// Index evaluates availability against the resource events visible through
// its repository. Nothing is cached; every call queries the store, so an
// Index built on a transaction's Repo sees that transaction's writes.
type Index struct {
	events store.ResourceRepo
}

// NewIndex returns an Index reading from r.
func NewIndex(r store.ResourceRepo) *Index {
	return &Index{events: r}
}

func (ix *Index) reason(ctx context.Context, rk model.ResourceKind, id string, date model.Date) (Reason, error) {
	evs, err := ix.events.CoveringEvents(ctx, rk, id, date)
	if err != nil {
		return "", err
	}
	if len(evs) == 0 {
		return "", nil
	}
	return reasonOf(evs[0].Kind), nil
}

// DriverUnavailability returns why the driver cannot work on date, or ""
// when available.
func (ix *Index) DriverUnavailability(ctx context.Context, driverID string, date model.Date) (Reason, error) {
	return ix.reason(ctx, model.ResourceDriver, driverID, date)
}

// IsDriverAvailable reports whether no resource event covers date for the
// driver.
func (ix *Index) IsDriverAvailable(ctx context.Context, driverID string, date model.Date) (bool, error) {
	r, err := ix.DriverUnavailability(ctx, driverID, date)
	return r == "", err
}

// TractorUnavailability returns why the tractor cannot be used on date, or
// "" when available.
func (ix *Index) TractorUnavailability(ctx context.Context, tractorID string, date model.Date) (Reason, error) {
	return ix.reason(ctx, model.ResourceTractor, tractorID, date)
}

// IsTractorAvailable reports whether no maintenance window covers date for
// the tractor.
func (ix *Index) IsTractorAvailable(ctx context.Context, tractorID string, date model.Date) (bool, error) {
	r, err := ix.TractorUnavailability(ctx, tractorID, date)
	return r == "", err
}
