// Package planning expands weekly plan requests into PLAN lines.
package planning

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/kilianp07/fleetops/core/apperr"
	"github.com/kilianp07/fleetops/core/availability"
	"github.com/kilianp07/fleetops/core/events"
	"github.com/kilianp07/fleetops/core/lines"
	"github.com/kilianp07/fleetops/core/logger"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/store"
)

// SkipCode says why a (driver, day) pair produced no line.
type SkipCode string

const (
	SkipRest           SkipCode = "REST"
	SkipExists         SkipCode = "EXISTS"
	SkipUnknownDriver  SkipCode = "UNKNOWN_DRIVER"
	SkipInactiveDriver SkipCode = "INACTIVE_DRIVER"
)

// Request asks for one line per driver per weekday of a week.
type Request struct {
	// WeekStart is any date of the target week; it is normalized to Monday.
	WeekStart  model.Date     `json:"week_start"`
	DriverIDs  []string       `json:"driver_ids"`
	Weekdays   []time.Weekday `json:"weekdays"`
	MaterialID string         `json:"material_id"`
	Creator    string         `json:"-"`
}

// Skip records a pair that was not planned.
type Skip struct {
	Date     model.Date `json:"date"`
	DriverID string     `json:"driver_id"`
	Reason   SkipCode   `json:"reason"`
}

// Result summarizes a generator run.
type Result struct {
	WeekStart   model.Date     `json:"week_start"`
	Created     int            `json:"created"`
	Skipped     int            `json:"skipped"`
	SkipReasons []Skip         `json:"skip_reasons"`
	ByMaterial  map[string]int `json:"by_material"`
	Lines       []model.Line   `json:"lines,omitempty"`
}

// Generator creates PLAN lines. Each pair is inserted in its own short
// transaction: a skipped pair never undoes the others.
type Generator struct {
	st  store.Store
	bus events.Publisher
	log logger.Logger
	now func() time.Time
}

// NewGenerator returns a Generator. bus may be nil.
func NewGenerator(st store.Store, bus events.Publisher, log logger.Logger) *Generator {
	return &Generator{st: st, bus: events.OrNop(bus), log: log, now: time.Now}
}

// Generate plans every (driver, weekday) pair of req. Pairs whose driver is
// resting, unknown or inactive, or that already have a PLAN line, are
// skipped and reported. Running the same request twice creates nothing the
// second time.
func (g *Generator) Generate(ctx context.Context, req Request) (Result, error) {
	const op = "planning.generate"
	if err := apperr.Required(op, "creator", req.Creator); err != nil {
		return Result{}, err
	}
	if req.WeekStart.IsZero() || len(req.DriverIDs) == 0 || len(req.Weekdays) == 0 {
		return Result{}, apperr.Validation(op, apperr.CodeInvalidInput, "week, drivers and weekdays are required")
	}
	for _, wd := range req.Weekdays {
		if wd < time.Sunday || wd > time.Saturday {
			return Result{}, apperr.Validation(op, apperr.CodeInvalidInput, "weekday %d is out of range", int(wd))
		}
	}
	monday := req.WeekStart.WeekStart()
	res := Result{WeekStart: monday, ByMaterial: map[string]int{}}

	if _, err := g.st.GetRef(ctx, model.RefMaterial, req.MaterialID); err != nil {
		return res, store.NotFound(op, "material", req.MaterialID, err)
	}
	locked, err := lines.WeekLocked(ctx, g.st, monday)
	if err != nil {
		return res, err
	}
	if locked {
		return res, apperr.Conflict(op, apperr.CodeWeekLocked, "week of %s is locked", monday)
	}

	days := uniqueWeekdays(req.Weekdays)
	for _, driverID := range uniqueStrings(req.DriverIDs) {
		for _, wd := range days {
			date := monday.AddDays(model.WeekdayOffset(wd))
			l, reason, err := g.planOne(ctx, date, driverID, req)
			if err != nil {
				return res, err
			}
			if reason != "" {
				res.Skipped++
				res.SkipReasons = append(res.SkipReasons, Skip{Date: date, DriverID: driverID, Reason: reason})
				continue
			}
			res.Created++
			res.ByMaterial[l.MaterialID]++
			res.Lines = append(res.Lines, l)
		}
	}

	reasons := map[string]int{}
	for _, s := range res.SkipReasons {
		reasons[string(s.Reason)]++
	}
	g.log.Infow("plan generated", map[string]any{
		"week_start": monday.String(), "created": res.Created, "skipped": res.Skipped,
		"material_id": req.MaterialID, "actor": req.Creator,
	})
	g.bus.Publish(events.PlanGenerated{
		WeekStart: monday, Created: res.Created, Skipped: res.Skipped, Reasons: reasons, Actor: req.Creator, At: g.now(),
	})
	return res, nil
}

// planOne inserts the line for one pair, or returns why it was skipped.
func (g *Generator) planOne(ctx context.Context, date model.Date, driverID string, req Request) (model.Line, SkipCode, error) {
	var (
		l      model.Line
		reason SkipCode
	)
	err := g.st.InTx(ctx, func(r store.Repo) error {
		d, err := r.GetDriver(ctx, driverID)
		if errors.Is(err, store.ErrNotFound) {
			reason = SkipUnknownDriver
			return nil
		}
		if err != nil {
			return err
		}
		if !d.Active {
			reason = SkipInactiveDriver
			return nil
		}
		why, err := availability.NewIndex(r).DriverUnavailability(ctx, driverID, date)
		if err != nil {
			return err
		}
		if why != "" {
			reason = SkipRest
			return nil
		}
		l = model.Line{
			Date:       date,
			DriverID:   driverID,
			MaterialID: req.MaterialID,
			TractorID:  d.TractorID,
			Origin:     model.OriginPlan,
			Status:     model.LinePending,
			CreatedBy:  req.Creator,
			CreatedAt:  g.now(),
		}
		l.ID, err = r.InsertLine(ctx, l)
		return err
	})
	if errors.Is(err, store.ErrDuplicate) {
		return model.Line{}, SkipExists, nil
	}
	if err != nil {
		return model.Line{}, "", err
	}
	return l, reason, nil
}

func uniqueWeekdays(in []time.Weekday) []time.Weekday {
	seen := map[time.Weekday]bool{}
	var out []time.Weekday
	for _, wd := range in {
		if !seen[wd] {
			seen[wd] = true
			out = append(out, wd)
		}
	}
	sort.Slice(out, func(i, j int) bool { return model.WeekdayOffset(out[i]) < model.WeekdayOffset(out[j]) })
	return out
}

func uniqueStrings(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
