// Package trips turns lines into trips and finalizes them.
package trips

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/fleetops/core/apperr"
	"github.com/kilianp07/fleetops/core/availability"
	"github.com/kilianp07/fleetops/core/events"
	"github.com/kilianp07/fleetops/core/logger"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/store"
	"github.com/kilianp07/fleetops/core/templates"
)

// ConfirmRequest carries the trip fields chosen when a line is confirmed.
// Empty fields fall back to the template, then to the line.
type ConfirmRequest struct {
	LineID        int64  `json:"line_id"`
	MaterialID    string `json:"material_id,omitempty"`
	ClientID      string `json:"client_id,omitempty"`
	OriginID      string `json:"origin_id,omitempty"`
	DestinationID string `json:"destination_id,omitempty"`
	TemplateID    *int64 `json:"template_id,omitempty"`
	Note          string `json:"note,omitempty"`
	Actor         string `json:"-"`
}

// Service generates and finalizes trips.
type Service struct {
	st  store.Store
	bus events.Publisher
	log logger.Logger
	now func() time.Time
}

// NewService returns a Service. bus may be nil.
func NewService(st store.Store, bus events.Publisher, log logger.Logger) *Service {
	return &Service{st: st, bus: events.OrNop(bus), log: log, now: time.Now}
}

// ConfirmLine creates the CONFIRMED trip of a PENDING or CONFIRMED line and
// marks the line TRIP_GENERATED, in one transaction.
func (s *Service) ConfirmLine(ctx context.Context, req ConfirmRequest) (model.Trip, error) {
	const op = "trips.confirm_line"
	if err := apperr.Required(op, "actor", req.Actor); err != nil {
		return model.Trip{}, err
	}
	var (
		trip model.Trip
		line model.Line
	)
	err := s.st.InTx(ctx, func(r store.Repo) error {
		var err error
		if line, err = r.GetLine(ctx, req.LineID); err != nil {
			return store.NotFound(op, "line", req.LineID, err)
		}
		switch line.Status {
		case model.LineCancelled:
			return apperr.Conflict(op, apperr.CodeInvalidTransition, "line %d is cancelled", line.ID)
		case model.LineTripGenerated:
			return apperr.Validation(op, apperr.CodeTripExists, "line %d already has a trip", line.ID)
		}

		driver, err := r.GetDriver(ctx, line.DriverID)
		if err != nil {
			return store.NotFound(op, "driver", line.DriverID, err)
		}
		ix := availability.NewIndex(r)
		reason, err := ix.DriverUnavailability(ctx, driver.ID, line.Date)
		if err != nil {
			return err
		}
		if reason != "" {
			return apperr.Validation(op, apperr.CodeDriverUnavailable, "driver %s is on %s on %s", driver.ID, reason, line.Date)
		}
		if driver.TractorID != nil {
			if err := checkTractor(ctx, r, ix, op, *driver.TractorID, line.Date); err != nil {
				return err
			}
		}

		trip = model.Trip{
			LineID:     &line.ID,
			Date:       line.Date,
			DriverID:   driver.ID,
			TractorID:  driver.TractorID,
			TemplateID: req.TemplateID,
			LineOrigin: line.Origin,
			Status:     model.TripConfirmed,
			Note:       req.Note,
			CreatedBy:  req.Actor,
			CreatedAt:  s.now(),
		}
		if err := resolve(ctx, r, op, req, line, &trip); err != nil {
			return err
		}

		id, err := r.InsertTrip(ctx, trip)
		if errors.Is(err, store.ErrDuplicate) {
			return apperr.Validation(op, apperr.CodeTripExists, "line %d already has a trip", line.ID)
		}
		if err != nil {
			return err
		}
		ok, err := r.TransitionLine(ctx, line.ID,
			[]model.LineStatus{model.LinePending, model.LineConfirmed}, model.LineTripGenerated)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict(op, apperr.CodeInvalidTransition, "line %d changed concurrently", line.ID)
		}
		if trip, err = r.GetTrip(ctx, id); err != nil {
			return err
		}
		line, err = r.GetLine(ctx, line.ID)
		return err
	})
	if err != nil {
		return model.Trip{}, err
	}

	at := s.now()
	s.log.Infow("trip created", map[string]any{
		"trip_id": trip.ID, "line_id": line.ID, "driver_id": trip.DriverID, "date": trip.Date.String(), "actor": req.Actor,
	})
	s.bus.Publish(events.TripChanged{Action: events.TripCreated, Trip: trip, Actor: req.Actor, At: at})
	s.bus.Publish(events.LineChanged{Action: events.LineTripped, Line: line, Actor: req.Actor, At: at})
	return trip, nil
}

func checkTractor(ctx context.Context, r store.Repo, ix *availability.Index, op, id string, date model.Date) error {
	t, err := r.GetTractor(ctx, id)
	if err != nil {
		return store.NotFound(op, "tractor", id, err)
	}
	if t.State != model.TractorOperational {
		return apperr.Validation(op, apperr.CodeTractorNotOperational, "tractor %s is %s", id, t.State)
	}
	reason, err := ix.TractorUnavailability(ctx, id, date)
	if err != nil {
		return err
	}
	if reason != "" {
		return apperr.Validation(op, apperr.CodeTractorNotOperational, "tractor %s is in %s on %s", id, reason, date)
	}
	return nil
}

// resolve fills the reference fields of t from the request, the template
// and the line, then checks every reference exists.
func resolve(ctx context.Context, r store.Repo, op string, req ConfirmRequest, line model.Line, t *model.Trip) error {
	var tpl model.Template
	if req.TemplateID != nil {
		var err error
		if tpl, err = templates.Active(ctx, r, *req.TemplateID); err != nil {
			return err
		}
		if t.Note == "" {
			t.Note = tpl.Note
		}
	}
	t.MaterialID = first(req.MaterialID, tpl.MaterialID, line.MaterialID)
	t.ClientID = first(req.ClientID, deref(tpl.ClientID))
	t.OriginID = first(req.OriginID, deref(tpl.OriginID))
	t.DestinationID = first(req.DestinationID, deref(tpl.DestinationID))

	refs := []struct {
		kind model.RefKind
		id   string
	}{
		{model.RefMaterial, t.MaterialID},
		{model.RefClient, t.ClientID},
		{model.RefOrigin, t.OriginID},
		{model.RefDestination, t.DestinationID},
	}
	for _, ref := range refs {
		if ref.id == "" {
			return apperr.Validation(op, apperr.CodeInvalidInput, "%s_id is required", ref.kind)
		}
		if _, err := r.GetRef(ctx, ref.kind, ref.id); err != nil {
			return store.NotFound(op, string(ref.kind), ref.id, err)
		}
	}
	return nil
}

func first(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Finalize moves a CONFIRMED trip to FINALIZED. Events can no longer be
// recorded against it afterwards.
func (s *Service) Finalize(ctx context.Context, id int64, actor string) (model.Trip, error) {
	const op = "trips.finalize"
	if err := apperr.Required(op, "actor", actor); err != nil {
		return model.Trip{}, err
	}
	var t model.Trip
	err := s.st.InTx(ctx, func(r store.Repo) error {
		var err error
		if t, err = r.GetTrip(ctx, id); err != nil {
			return store.NotFound(op, "trip", id, err)
		}
		if t.Status == model.TripFinalized {
			return apperr.Conflict(op, apperr.CodeTripFinalized, "trip %d is already finalized", id)
		}
		ok, err := r.FinalizeTrip(ctx, id, actor, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict(op, apperr.CodeTripFinalized, "trip %d changed concurrently", id)
		}
		t, err = r.GetTrip(ctx, id)
		return err
	})
	if err != nil {
		return model.Trip{}, err
	}
	s.log.Infow("trip finalized", map[string]any{"trip_id": id, "actor": actor})
	s.bus.Publish(events.TripChanged{Action: events.TripFinalized, Trip: t, Actor: actor, At: s.now()})
	return t, nil
}

// Get returns a trip.
func (s *Service) Get(ctx context.Context, id int64) (model.Trip, error) {
	t, err := s.st.GetTrip(ctx, id)
	if err != nil {
		return model.Trip{}, store.NotFound("trips.get", "trip", id, err)
	}
	return t, nil
}

// ForLine returns the trip generated from a line.
func (s *Service) ForLine(ctx context.Context, lineID int64) (model.Trip, error) {
	t, err := s.st.TripForLine(ctx, lineID)
	if err != nil {
		return model.Trip{}, store.NotFound("trips.for_line", "trip for line", lineID, err)
	}
	return t, nil
}

// List returns the trips matching f.
func (s *Service) List(ctx context.Context, f store.TripFilter) ([]model.Trip, error) {
	return s.st.ListTrips(ctx, f)
}
