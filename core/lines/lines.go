// Package lines owns the lifecycle of planned and off-plan lines.
//
//	PENDING ──confirm──▶ CONFIRMED
//	   │                     │
//	   ├──cancel──▶ CANCELLED ◀──cancel──┤
//	   │                     │
//	   └──trip──▶ TRIP_GENERATED ◀──trip─┘
//
// PENDING and CONFIRMED are the editable states; CANCELLED and
// TRIP_GENERATED are terminal. A week holding any CONFIRMED PLAN line is
// locked: the generator and manual edits or deletes of PLAN lines are
// rejected until then.
package lines

import (
	"context"
	"time"

	"github.com/kilianp07/fleetops/core/apperr"
	"github.com/kilianp07/fleetops/core/events"
	"github.com/kilianp07/fleetops/core/logger"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/store"
)

// editableOrigins are the origins whose lines may be deleted.
var editableOrigins = map[model.LineOrigin]bool{model.OriginPlan: true}

// WeekLocked reports whether the week containing date holds a CONFIRMED
// PLAN line.
func WeekLocked(ctx context.Context, r store.LineRepo, date model.Date) (bool, error) {
	from, to := date.Week()
	n, err := r.CountLines(ctx, store.LineFilter{
		From: from, To: to, Origin: model.OriginPlan, Statuses: []model.LineStatus{model.LineConfirmed},
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Service applies line transitions, each in its own transaction.
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

// Get returns a line.
func (s *Service) Get(ctx context.Context, id int64) (model.Line, error) {
	l, err := s.st.GetLine(ctx, id)
	if err != nil {
		return model.Line{}, store.NotFound("lines.get", "line", id, err)
	}
	return l, nil
}

// WeekLocked reports whether the week containing date is locked.
func (s *Service) WeekLocked(ctx context.Context, date model.Date) (bool, error) {
	return WeekLocked(ctx, s.st, date)
}

// Confirm moves a PENDING line to CONFIRMED. Confirming a CONFIRMED or
// TRIP_GENERATED line is a no-op; a CANCELLED line cannot be confirmed.
func (s *Service) Confirm(ctx context.Context, id int64, actor string) (model.Line, error) {
	const op = "lines.confirm"
	var (
		l       model.Line
		changed bool
	)
	err := s.transition(ctx, op, id, actor, func(r store.Repo, cur model.Line) error {
		switch cur.Status {
		case model.LineConfirmed, model.LineTripGenerated:
			return nil
		case model.LineCancelled:
			return apperr.Conflict(op, apperr.CodeInvalidTransition, "line %d is cancelled", id)
		}
		ok, err := r.TransitionLine(ctx, id, []model.LineStatus{model.LinePending}, model.LineConfirmed)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict(op, apperr.CodeInvalidTransition, "line %d changed concurrently", id)
		}
		changed = true
		return nil
	}, &l)
	if err != nil || !changed {
		return l, err
	}
	s.emit(events.LineConfirmed, model.LinePending, l, actor)
	return l, nil
}

// Cancel moves a non-terminal line to CANCELLED.
func (s *Service) Cancel(ctx context.Context, id int64, actor string) (model.Line, error) {
	const op = "lines.cancel"
	var (
		l    model.Line
		from model.LineStatus
	)
	err := s.transition(ctx, op, id, actor, func(r store.Repo, cur model.Line) error {
		if cur.Status.Terminal() {
			return apperr.Conflict(op, apperr.CodeInvalidTransition, "line %d is %s", id, cur.Status)
		}
		from = cur.Status
		ok, err := r.TransitionLine(ctx, id, []model.LineStatus{model.LinePending, model.LineConfirmed}, model.LineCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict(op, apperr.CodeInvalidTransition, "line %d changed concurrently", id)
		}
		return nil
	}, &l)
	if err != nil {
		return l, err
	}
	s.emit(events.LineCancelled, from, l, actor)
	return l, nil
}

// transition loads the line, runs fn and reloads the line into out, all in
// one transaction.
func (s *Service) transition(ctx context.Context, op string, id int64, actor string,
	fn func(store.Repo, model.Line) error, out *model.Line) error {
	if err := apperr.Required(op, "actor", actor); err != nil {
		return err
	}
	return s.st.InTx(ctx, func(r store.Repo) error {
		cur, err := r.GetLine(ctx, id)
		if err != nil {
			return store.NotFound(op, "line", id, err)
		}
		if err := fn(r, cur); err != nil {
			return err
		}
		*out, err = r.GetLine(ctx, id)
		return err
	})
}

// Delete removes a PENDING line of an editable origin. PLAN lines of a
// locked week cannot be deleted.
func (s *Service) Delete(ctx context.Context, id int64, actor string) error {
	const op = "lines.delete"
	if err := apperr.Required(op, "actor", actor); err != nil {
		return err
	}
	var l model.Line
	err := s.st.InTx(ctx, func(r store.Repo) error {
		var err error
		if l, err = r.GetLine(ctx, id); err != nil {
			return store.NotFound(op, "line", id, err)
		}
		if err := checkEditable(ctx, r, op, l); err != nil {
			return err
		}
		if !editableOrigins[l.Origin] {
			return apperr.Conflict(op, apperr.CodeNotEditable, "%s lines cannot be deleted", l.Origin)
		}
		return r.DeleteLine(ctx, id)
	})
	if err != nil {
		return err
	}
	s.emit(events.LineDeleted, l.Status, l, actor)
	return nil
}

// Patch changes the editable fields of a PENDING line. Nil fields are kept;
// an empty TractorID clears the tractor.
type Patch struct {
	MaterialID *string `json:"material_id,omitempty"`
	TractorID  *string `json:"tractor_id,omitempty"`
}

// Update applies p to a PENDING line.
func (s *Service) Update(ctx context.Context, id int64, p Patch, actor string) (model.Line, error) {
	const op = "lines.update"
	if err := apperr.Required(op, "actor", actor); err != nil {
		return model.Line{}, err
	}
	var l model.Line
	err := s.st.InTx(ctx, func(r store.Repo) error {
		var err error
		if l, err = r.GetLine(ctx, id); err != nil {
			return store.NotFound(op, "line", id, err)
		}
		if err := checkEditable(ctx, r, op, l); err != nil {
			return err
		}
		if p.MaterialID != nil {
			if _, err := r.GetRef(ctx, model.RefMaterial, *p.MaterialID); err != nil {
				return store.NotFound(op, "material", *p.MaterialID, err)
			}
			l.MaterialID = *p.MaterialID
		}
		if p.TractorID != nil {
			if *p.TractorID == "" {
				l.TractorID = nil
			} else {
				if _, err := r.GetTractor(ctx, *p.TractorID); err != nil {
					return store.NotFound(op, "tractor", *p.TractorID, err)
				}
				l.TractorID = p.TractorID
			}
		}
		if err := r.UpdateLine(ctx, l); err != nil {
			return err
		}
		l, err = r.GetLine(ctx, id)
		return err
	})
	if err != nil {
		return model.Line{}, err
	}
	s.emit(events.LineUpdated, l.Status, l, actor)
	return l, nil
}

// checkEditable rejects edits of non-PENDING lines and of PLAN lines in a
// locked week.
func checkEditable(ctx context.Context, r store.LineRepo, op string, l model.Line) error {
	if l.Status != model.LinePending {
		return apperr.Conflict(op, apperr.CodeNotEditable, "line %d is %s", l.ID, l.Status)
	}
	if l.Origin != model.OriginPlan {
		return nil
	}
	locked, err := WeekLocked(ctx, r, l.Date)
	if err != nil {
		return err
	}
	if locked {
		start := l.Date.WeekStart()
		return apperr.Conflict(op, apperr.CodeWeekLocked, "week of %s is locked", start)
	}
	return nil
}

// FreezeWeek confirms every PENDING PLAN line of the week containing date
// and returns how many lines changed.
func (s *Service) FreezeWeek(ctx context.Context, date model.Date, actor string) (int, error) {
	const op = "lines.freeze_week"
	if err := apperr.Required(op, "actor", actor); err != nil {
		return 0, err
	}
	from, to := date.Week()
	var n int64
	err := s.st.InTx(ctx, func(r store.Repo) error {
		total, err := r.CountLines(ctx, store.LineFilter{From: from, To: to, Origin: model.OriginPlan})
		if err != nil {
			return err
		}
		if total == 0 {
			return apperr.Validation(op, apperr.CodeInvalidInput, "week of %s has no planned lines", from)
		}
		n, err = r.TransitionLines(ctx, store.LineFilter{
			From: from, To: to, Origin: model.OriginPlan, Statuses: []model.LineStatus{model.LinePending},
		}, model.LineConfirmed)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.log.Infow("week frozen", map[string]any{"week_start": from.String(), "confirmed": n, "actor": actor})
	s.bus.Publish(events.LinesFrozen{WeekStart: from, Confirmed: int(n), Actor: actor, At: s.now()})
	return int(n), nil
}

// OffPlanRequest describes an ad-hoc line.
type OffPlanRequest struct {
	Date       model.Date `json:"date"`
	DriverID   string     `json:"driver_id"`
	TractorID  *string    `json:"tractor_id,omitempty"`
	MaterialID string     `json:"material_id"`
	Actor      string     `json:"-"`
}

// CreateOffPlan inserts a PENDING OFF_PLAN line.
func (s *Service) CreateOffPlan(ctx context.Context, req OffPlanRequest) (model.Line, error) {
	const op = "lines.create_off_plan"
	if err := apperr.Required(op, "actor", req.Actor); err != nil {
		return model.Line{}, err
	}
	if req.Date.IsZero() {
		return model.Line{}, apperr.Validation(op, apperr.CodeInvalidInput, "date is required")
	}
	l := model.Line{
		Date:       req.Date,
		DriverID:   req.DriverID,
		MaterialID: req.MaterialID,
		TractorID:  req.TractorID,
		Origin:     model.OriginOffPlan,
		Status:     model.LinePending,
		CreatedBy:  req.Actor,
		CreatedAt:  s.now(),
	}
	err := s.st.InTx(ctx, func(r store.Repo) error {
		if _, err := r.GetDriver(ctx, req.DriverID); err != nil {
			return store.NotFound(op, "driver", req.DriverID, err)
		}
		if _, err := r.GetRef(ctx, model.RefMaterial, req.MaterialID); err != nil {
			return store.NotFound(op, "material", req.MaterialID, err)
		}
		if req.TractorID != nil {
			if _, err := r.GetTractor(ctx, *req.TractorID); err != nil {
				return store.NotFound(op, "tractor", *req.TractorID, err)
			}
		}
		id, err := r.InsertLine(ctx, l)
		if err != nil {
			return err
		}
		l, err = r.GetLine(ctx, id)
		return err
	})
	if err != nil {
		return model.Line{}, err
	}
	s.emit(events.LineCreated, "", l, req.Actor)
	return l, nil
}

func (s *Service) emit(action string, from model.LineStatus, l model.Line, actor string) {
	s.log.Infow("line "+action, map[string]any{
		"line_id": l.ID, "date": l.Date.String(), "driver_id": l.DriverID, "status": string(l.Status), "actor": actor,
	})
	s.bus.Publish(events.LineChanged{Action: action, From: from, Line: l, Actor: actor, At: s.now()})
}
