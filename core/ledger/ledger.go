// Package ledger records operational events against trips and aggregates
// the reserved delay kinds.
package ledger

import (
	"context"
	"time"

	"github.com/kilianp07/fleetops/core/apperr"
	"github.com/kilianp07/fleetops/core/events"
	"github.com/kilianp07/fleetops/core/logger"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/store"
)

// RecordRequest describes one trip event. End may be nil for an event that
// has not finished.
type RecordRequest struct {
	TripID int64      `json:"trip_id"`
	Kind   string     `json:"kind"`
	Start  time.Time  `json:"start"`
	End    *time.Time `json:"end"`
	Note   string     `json:"note,omitempty"`
	Actor  string     `json:"-"`
}

// EventView is a trip event with its computed duration.
type EventView struct {
	model.TripEvent
	DurationMinutes int `json:"duration_minutes"`
}

// Service writes and reads the trip event ledger.
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

// Record appends an event to a trip that is not finalized.
func (s *Service) Record(ctx context.Context, req RecordRequest) (EventView, error) {
	const op = "ledger.record"
	if err := apperr.Required(op, "actor", req.Actor); err != nil {
		return EventView{}, err
	}
	kind := model.NormalizeEventKind(req.Kind)
	if kind == "" {
		return EventView{}, apperr.Validation(op, apperr.CodeInvalidInput, "kind is required")
	}
	if req.Start.IsZero() {
		return EventView{}, apperr.Validation(op, apperr.CodeInvalidInput, "start is required")
	}
	if req.End == nil || req.End.IsZero() {
		return EventView{}, apperr.Validation(op, apperr.CodeInvalidInterval, "end is required")
	}
	// Timestamps are stored with second precision.
	start := req.Start.UTC().Truncate(time.Second)
	end := req.End.UTC().Truncate(time.Second)
	if !end.After(start) {
		return EventView{}, apperr.Validation(op, apperr.CodeInvalidInterval, "end %s is not after start %s",
			end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	ev := model.TripEvent{
		TripID:    req.TripID,
		Kind:      kind,
		Start:     start,
		End:       &end,
		Note:      req.Note,
		CreatedBy: req.Actor,
		CreatedAt: s.now(),
	}
	err := s.st.InTx(ctx, func(r store.Repo) error {
		trip, err := r.GetTrip(ctx, req.TripID)
		if err != nil {
			return store.NotFound(op, "trip", req.TripID, err)
		}
		if trip.Status == model.TripFinalized {
			return apperr.Validation(op, apperr.CodeTripFinalized, "trip %d is finalized", trip.ID)
		}
		ev.ID, err = r.InsertTripEvent(ctx, ev)
		return err
	})
	if err != nil {
		return EventView{}, err
	}
	v := EventView{TripEvent: ev, DurationMinutes: ev.DurationMinutes()}
	s.log.Infow("trip event recorded", map[string]any{
		"trip_id": ev.TripID, "kind": string(ev.Kind), "minutes": v.DurationMinutes, "actor": req.Actor,
	})
	s.bus.Publish(events.TripEventRecorded{Event: ev, DurationMinutes: v.DurationMinutes, Actor: req.Actor})
	return v, nil
}

// RecordDelay is Record restricted to the reserved delay kinds.
func (s *Service) RecordDelay(ctx context.Context, req RecordRequest) (EventView, error) {
	if k := model.NormalizeEventKind(req.Kind); !k.IsDelay() {
		return EventView{}, apperr.Validation("ledger.record_delay", apperr.CodeInvalidInput,
			"%q is not a delay kind", req.Kind)
	}
	return s.Record(ctx, req)
}

// ListEvents returns the events of a trip ordered by start.
func (s *Service) ListEvents(ctx context.Context, tripID int64) ([]EventView, error) {
	if _, err := s.st.GetTrip(ctx, tripID); err != nil {
		return nil, store.NotFound("ledger.list_events", "trip", tripID, err)
	}
	evs, err := s.st.ListTripEvents(ctx, tripID)
	if err != nil {
		return nil, err
	}
	out := make([]EventView, 0, len(evs))
	for _, e := range evs {
		out = append(out, EventView{TripEvent: e, DurationMinutes: e.DurationMinutes()})
	}
	return out, nil
}

// DelayTotals returns the minutes of every reserved delay kind recorded
// against a trip. Durations are summed before truncation to whole minutes.
func (s *Service) DelayTotals(ctx context.Context, tripID int64) (map[model.EventKind]int, error) {
	if _, err := s.st.GetTrip(ctx, tripID); err != nil {
		return nil, store.NotFound("ledger.delay_totals", "trip", tripID, err)
	}
	evs, err := s.st.ListTripEvents(ctx, tripID)
	if err != nil {
		return nil, err
	}
	return delayTotals(evs), nil
}

func delayTotals(evs []model.TripEvent) map[model.EventKind]int {
	sums := make(map[model.EventKind]time.Duration, len(model.DelayKinds))
	for _, e := range evs {
		if !e.Kind.IsDelay() || e.End == nil || !e.End.After(e.Start) {
			continue
		}
		sums[e.Kind] += e.End.Sub(e.Start)
	}
	out := make(map[model.EventKind]int, len(model.DelayKinds))
	for _, k := range model.DelayKinds {
		out[k] = int(sums[k] / time.Minute)
	}
	return out
}

// Search lists events across trips.
func (s *Service) Search(ctx context.Context, f store.TripEventFilter) ([]store.TripEventView, error) {
	if f.Kind != "" {
		f.Kind = model.NormalizeEventKind(string(f.Kind))
	}
	return s.st.SearchTripEvents(ctx, f)
}
