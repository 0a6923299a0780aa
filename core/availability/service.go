package availability

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/kilianp07/fleetops/core/apperr"
	"github.com/kilianp07/fleetops/core/events"
	"github.com/kilianp07/fleetops/core/logger"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/store"
)

// Service runs the workflows that open and close resource events.
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

// Index returns an Index reading committed state.
func (s *Service) Index() *Index { return NewIndex(s.st) }

// RestRequest opens a rest period for a driver.
type RestRequest struct {
	DriverID string     `json:"driver_id"`
	Start    model.Date `json:"start"`
	End      model.Date `json:"end"`
	Note     string     `json:"note"`
	Actor    string     `json:"-"`
}

// StartRest records a rest period. A driver going on rest releases their
// tractor: the binding is cleared and the tractor returns to OPERATIONAL in
// the same transaction.
func (s *Service) StartRest(ctx context.Context, req RestRequest) (model.ResourceEvent, error) {
	const op = "availability.start_rest"
	if err := apperr.Required(op, "actor", req.Actor); err != nil {
		return model.ResourceEvent{}, err
	}
	if req.Start.IsZero() || req.End.IsZero() {
		return model.ResourceEvent{}, apperr.Validation(op, apperr.CodeInvalidInput, "start and end dates are required")
	}
	if req.End.Before(req.Start) {
		return model.ResourceEvent{}, apperr.Validation(op, apperr.CodeInvalidInterval,
			"end %s is before start %s", req.End, req.Start)
	}
	end := req.End
	ev := model.ResourceEvent{
		Kind:         model.EventRest,
		ResourceKind: model.ResourceDriver,
		ResourceID:   req.DriverID,
		Start:        req.Start,
		End:          &end,
		Note:         req.Note,
		CreatedBy:    req.Actor,
		CreatedAt:    s.now(),
	}
	var released string
	err := s.st.InTx(ctx, func(r store.Repo) error {
		d, err := r.GetDriver(ctx, req.DriverID)
		if err != nil {
			return store.NotFound(op, "driver", req.DriverID, err)
		}
		if ev.ID, err = r.InsertResourceEvent(ctx, ev); err != nil {
			return err
		}
		if d.TractorID == nil {
			return nil
		}
		if err := r.SetDriverTractor(ctx, d.ID, nil); err != nil {
			return err
		}
		if err := r.SetTractorState(ctx, *d.TractorID, model.TractorOperational); err != nil {
			return err
		}
		released = *d.TractorID
		return nil
	})
	if err != nil {
		return model.ResourceEvent{}, err
	}
	s.log.Infow("rest started", map[string]any{
		"event_id": ev.ID, "driver_id": ev.ResourceID, "start": ev.Start.String(), "end": end.String(),
		"released_tractor": released, "actor": req.Actor,
	})
	s.bus.Publish(events.ResourceChanged{
		Action: events.RestStarted, Kind: model.ResourceDriver, ResourceID: ev.ResourceID,
		EventID: ev.ID, Released: released, Actor: req.Actor, At: ev.CreatedAt,
	})
	return ev, nil
}

// FinishRest moves the end of a rest period to end.
func (s *Service) FinishRest(ctx context.Context, eventID int64, end model.Date, actor string) (model.ResourceEvent, error) {
	const op = "availability.finish_rest"
	ev, err := s.closeEvent(ctx, op, eventID, end, actor, model.EventRest, nil)
	if err != nil {
		return ev, err
	}
	s.bus.Publish(events.ResourceChanged{
		Action: events.RestFinished, Kind: ev.ResourceKind, ResourceID: ev.ResourceID,
		EventID: ev.ID, Actor: actor, At: s.now(),
	})
	return ev, nil
}

// MaintenanceRequest opens a maintenance window for a tractor.
type MaintenanceRequest struct {
	TractorID string     `json:"tractor_id"`
	Start     model.Date `json:"start"`
	Note      string     `json:"note"`
	Actor     string     `json:"-"`
}

// StartMaintenance unbinds every driver from the tractor, opens an
// open-ended maintenance window and marks the tractor MAINTENANCE.
func (s *Service) StartMaintenance(ctx context.Context, req MaintenanceRequest) (model.ResourceEvent, error) {
	const op = "availability.start_maintenance"
	if err := apperr.Required(op, "actor", req.Actor); err != nil {
		return model.ResourceEvent{}, err
	}
	if req.Start.IsZero() {
		return model.ResourceEvent{}, apperr.Validation(op, apperr.CodeInvalidInput, "start date is required")
	}
	ev := model.ResourceEvent{
		Kind:         model.EventMaintenance,
		ResourceKind: model.ResourceTractor,
		ResourceID:   req.TractorID,
		Start:        req.Start,
		Note:         req.Note,
		CreatedBy:    req.Actor,
		CreatedAt:    s.now(),
	}
	var unbound int64
	err := s.st.InTx(ctx, func(r store.Repo) error {
		if _, err := r.GetTractor(ctx, req.TractorID); err != nil {
			return store.NotFound(op, "tractor", req.TractorID, err)
		}
		open, err := r.ListResourceEvents(ctx, store.ResourceEventFilter{
			Kind: model.EventMaintenance, ResourceKind: model.ResourceTractor, ResourceID: req.TractorID, OpenOnly: true,
		})
		if err != nil {
			return err
		}
		if len(open) > 0 {
			return apperr.Conflict(op, apperr.CodeMaintenanceOpen,
				"tractor %s already in maintenance since %s (event %d)", req.TractorID, open[0].Start, open[0].ID)
		}
		if unbound, err = r.UnbindTractor(ctx, req.TractorID); err != nil {
			return err
		}
		if ev.ID, err = r.InsertResourceEvent(ctx, ev); err != nil {
			return err
		}
		return r.SetTractorState(ctx, req.TractorID, model.TractorMaintenance)
	})
	if err != nil {
		return model.ResourceEvent{}, err
	}
	s.log.Infow("maintenance started", map[string]any{
		"event_id": ev.ID, "tractor_id": req.TractorID, "start": req.Start.String(),
		"unbound_drivers": unbound, "actor": req.Actor,
	})
	s.bus.Publish(events.ResourceChanged{
		Action: events.MaintenanceStarted, Kind: model.ResourceTractor, ResourceID: req.TractorID,
		EventID: ev.ID, Actor: req.Actor, At: ev.CreatedAt,
	})
	return ev, nil
}

// FinishMaintenance closes an open maintenance window and returns the
// tractor to OPERATIONAL.
func (s *Service) FinishMaintenance(ctx context.Context, eventID int64, end model.Date, actor string) (model.ResourceEvent, error) {
	const op = "availability.finish_maintenance"
	ev, err := s.closeEvent(ctx, op, eventID, end, actor, model.EventMaintenance, func(r store.Repo, ev model.ResourceEvent) error {
		if !ev.Open() {
			return apperr.Conflict(op, apperr.CodeAlreadyClosed, "maintenance %d already closed on %s", ev.ID, ev.End)
		}
		return r.SetTractorState(ctx, ev.ResourceID, model.TractorOperational)
	})
	if err != nil {
		return ev, err
	}
	s.bus.Publish(events.ResourceChanged{
		Action: events.MaintenanceFinished, Kind: ev.ResourceKind, ResourceID: ev.ResourceID,
		EventID: ev.ID, Actor: actor, At: s.now(),
	})
	return ev, nil
}

// closeEvent sets the end date of an event of the given kind. extra runs in
// the same transaction before the update.
func (s *Service) closeEvent(ctx context.Context, op string, id int64, end model.Date, actor string,
	kind model.ResourceEventKind, extra func(store.Repo, model.ResourceEvent) error) (model.ResourceEvent, error) {
	if err := apperr.Required(op, "actor", actor); err != nil {
		return model.ResourceEvent{}, err
	}
	if end.IsZero() {
		return model.ResourceEvent{}, apperr.Validation(op, apperr.CodeInvalidInput, "end date is required")
	}
	var ev model.ResourceEvent
	err := s.st.InTx(ctx, func(r store.Repo) error {
		var err error
		if ev, err = r.GetResourceEvent(ctx, id); err != nil {
			return store.NotFound(op, "resource event", id, err)
		}
		if ev.Kind != kind {
			return apperr.Validation(op, apperr.CodeInvalidInput, "event %d is %s, not %s", id, ev.Kind, kind)
		}
		if end.Before(ev.Start) {
			return apperr.Validation(op, apperr.CodeInvalidInterval, "end %s is before start %s", end, ev.Start)
		}
		if extra != nil {
			if err := extra(r, ev); err != nil {
				return err
			}
		}
		return r.CloseResourceEvent(ctx, id, end)
	})
	if err != nil {
		return model.ResourceEvent{}, err
	}
	ev.End = &end
	s.log.Infow("resource event closed", map[string]any{
		"event_id": id, "kind": string(kind), "resource_id": ev.ResourceID, "end": end.String(), "actor": actor,
	})
	return ev, nil
}

// BindTractor binds the driver to tractorID, or releases the driver's
// tractor when tractorID is nil.
func (s *Service) BindTractor(ctx context.Context, driverID string, tractorID *string, actor string) (model.Driver, error) {
	const op = "availability.bind_tractor"
	if err := apperr.Required(op, "actor", actor); err != nil {
		return model.Driver{}, err
	}
	var d model.Driver
	err := s.st.InTx(ctx, func(r store.Repo) error {
		var err error
		if d, err = r.GetDriver(ctx, driverID); err != nil {
			return store.NotFound(op, "driver", driverID, err)
		}
		if tractorID != nil {
			tr, err := r.GetTractor(ctx, *tractorID)
			if err != nil {
				return store.NotFound(op, "tractor", *tractorID, err)
			}
			if !tr.Active || tr.State != model.TractorOperational {
				return apperr.Validation(op, apperr.CodeTractorNotOperational,
					"tractor %s is %s", tr.ID, tr.State)
			}
			holder, err := r.DriverForTractor(ctx, tr.ID)
			switch {
			case err == nil && holder.ID != driverID:
				return apperr.Conflict(op, apperr.CodeTractorBound, "tractor %s is bound to driver %s", tr.ID, holder.ID)
			case err != nil && !errors.Is(err, store.ErrNotFound):
				return err
			}
		}
		if err := r.SetDriverTractor(ctx, driverID, tractorID); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperr.Conflict(op, apperr.CodeTractorBound, "tractor %s is bound to another driver", *tractorID)
			}
			return err
		}
		d.TractorID = tractorID
		return nil
	})
	if err != nil {
		return model.Driver{}, err
	}
	action := events.TractorUnbound
	bound := ""
	if tractorID != nil {
		action, bound = events.TractorBound, *tractorID
	}
	s.log.Infow("driver binding changed", map[string]any{"driver_id": driverID, "tractor_id": bound, "actor": actor})
	s.bus.Publish(events.ResourceChanged{
		Action: action, Kind: model.ResourceDriver, ResourceID: driverID, Released: bound, Actor: actor, At: s.now(),
	})
	return d, nil
}

// Events lists resource events matching f.
func (s *Service) Events(ctx context.Context, f store.ResourceEventFilter) ([]model.ResourceEvent, error) {
	return s.st.ListResourceEvents(ctx, f)
}

// RestCount is the number of rest days a driver has in a month.
type RestCount struct {
	DriverID string `json:"driver_id"`
	Name     string `json:"name"`
	Days     int    `json:"days"`
}

// RestDays counts, for every active driver, the rest days that fall inside
// the given month. Overlapping rest periods are counted once per day.
func (s *Service) RestDays(ctx context.Context, year int, month time.Month) ([]RestCount, error) {
	from := model.NewDate(year, month, 1)
	to := model.NewDate(year, month+1, 1).AddDays(-1)
	drivers, err := s.st.ListDrivers(ctx, true)
	if err != nil {
		return nil, err
	}
	evs, err := s.st.ListResourceEvents(ctx, store.ResourceEventFilter{
		Kind: model.EventRest, ResourceKind: model.ResourceDriver, From: from, To: to,
	})
	if err != nil {
		return nil, err
	}
	days := map[string]map[string]struct{}{}
	for _, ev := range evs {
		start := ev.Start
		if start.Before(from) {
			start = from
		}
		for d := start; !d.After(to) && ev.Contains(d); d = d.AddDays(1) {
			if days[ev.ResourceID] == nil {
				days[ev.ResourceID] = map[string]struct{}{}
			}
			days[ev.ResourceID][d.String()] = struct{}{}
		}
	}
	res := make([]RestCount, 0, len(drivers))
	for _, d := range drivers {
		res = append(res, RestCount{DriverID: d.ID, Name: d.Name, Days: len(days[d.ID])})
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].Days > res[j].Days })
	return res, nil
}

// Unavailable names a resource that cannot be assigned and why.
type Unavailable struct {
	Kind   model.ResourceKind `json:"kind"`
	ID     string             `json:"id"`
	Reason Reason             `json:"reason"`
}

// Pool is the assignable capacity of a day.
type Pool struct {
	Date              model.Date    `json:"date"`
	DriversTotal      int           `json:"drivers_total"`
	DriversAvailable  int           `json:"drivers_available"`
	TractorsTotal     int           `json:"tractors_total"`
	TractorsAvailable int           `json:"tractors_available"`
	Capacity          int           `json:"capacity"`
	Unavailable       []Unavailable `json:"unavailable,omitempty"`
}

// DailyPool counts active drivers and tractors available on date. Capacity
// is the number of crews that can be formed.
func (s *Service) DailyPool(ctx context.Context, date model.Date) (Pool, error) {
	p := Pool{Date: date}
	ix := s.Index()
	drivers, err := s.st.ListDrivers(ctx, true)
	if err != nil {
		return p, err
	}
	for _, d := range drivers {
		p.DriversTotal++
		r, err := ix.DriverUnavailability(ctx, d.ID, date)
		if err != nil {
			return p, err
		}
		if r != "" {
			p.Unavailable = append(p.Unavailable, Unavailable{Kind: model.ResourceDriver, ID: d.ID, Reason: r})
			continue
		}
		p.DriversAvailable++
	}
	tractors, err := s.st.ListTractors(ctx, true)
	if err != nil {
		return p, err
	}
	for _, t := range tractors {
		p.TractorsTotal++
		r, err := ix.TractorUnavailability(ctx, t.ID, date)
		if err != nil {
			return p, err
		}
		if r == "" && t.State != model.TractorOperational {
			r = ReasonMaintenance
		}
		if r != "" {
			p.Unavailable = append(p.Unavailable, Unavailable{Kind: model.ResourceTractor, ID: t.ID, Reason: r})
			continue
		}
		p.TractorsAvailable++
	}
	p.Capacity = min(p.DriversAvailable, p.TractorsAvailable)
	return p, nil
}

// LooseTractors returns active OPERATIONAL tractors no active driver is
// bound to.
func (s *Service) LooseTractors(ctx context.Context) ([]model.Tractor, error) {
	drivers, err := s.st.ListDrivers(ctx, true)
	if err != nil {
		return nil, err
	}
	bound := make(map[string]bool, len(drivers))
	for _, d := range drivers {
		if d.TractorID != nil {
			bound[*d.TractorID] = true
		}
	}
	tractors, err := s.st.ListTractors(ctx, true)
	if err != nil {
		return nil, err
	}
	var res []model.Tractor
	for _, t := range tractors {
		if t.State == model.TractorOperational && !bound[t.ID] {
			res = append(res, t)
		}
	}
	return res, nil
}
