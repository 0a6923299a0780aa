// Package deviation compares planned lines with executed trips.
package deviation

import (
	"context"
	"sort"

	"github.com/kilianp07/fleetops/core/apperr"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/store"
)

// Result classifies one planned line.
type Result string

const (
	OK              Result = "OK"
	ChangedMaterial Result = "CHANGED_MATERIAL"
	NotExecuted     Result = "NOT_EXECUTED"
)

// executedStatuses are the trip states counted as execution.
var executedStatuses = []model.TripStatus{model.TripConfirmed, model.TripFinalized}

// Row is the deviation of one planned (date, driver).
type Row struct {
	Date             model.Date `json:"date"`
	DriverID         string     `json:"driver_id"`
	DriverName       string     `json:"driver_name"`
	LineID           int64      `json:"line_id"`
	MaterialPlanned  string     `json:"material_planned"`
	MaterialExecuted *string    `json:"material_executed,omitempty"`
	Result           Result     `json:"result"`
	ExecutedTrips    int        `json:"executed_trips"`
}

// DaySummary counts the deviations of one day.
type DaySummary struct {
	Date            model.Date `json:"date"`
	Planned         int        `json:"planned"`
	Executed        int        `json:"executed"`
	Deviated        int        `json:"deviated"`
	ChangedMaterial int        `json:"changed_material"`
}

// Classify compares the planned material with the materials of the trips
// executed for the same (date, driver). Any trip carrying the planned
// material makes the line OK.
func Classify(planned string, executed []string) Result {
	if len(executed) == 0 {
		return NotExecuted
	}
	for _, m := range executed {
		if m == planned {
			return OK
		}
	}
	return ChangedMaterial
}

// Analyzer reads lines and trips and reports deviations.
type Analyzer struct {
	st store.Repo
}

// NewAnalyzer returns an Analyzer.
func NewAnalyzer(st store.Repo) *Analyzer {
	return &Analyzer{st: st}
}

// Daily returns one row per PLAN line of date, whatever its status, ordered
// by driver.
func (a *Analyzer) Daily(ctx context.Context, date model.Date) ([]Row, error) {
	if date.IsZero() {
		return nil, apperr.Validation("deviation.daily", apperr.CodeInvalidInput, "date is required")
	}
	return a.rows(ctx, date, date)
}

// Range returns the rows of every day in [from, to].
func (a *Analyzer) Range(ctx context.Context, from, to model.Date) ([]Row, error) {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, apperr.Validation("deviation.range", apperr.CodeInvalidInterval, "invalid range %s..%s", from, to)
	}
	return a.rows(ctx, from, to)
}

// Weekly returns seven summaries, Monday to Sunday, for the week holding
// date. Only planned lines without any trip count as deviated; trips with
// no planned line are ignored.
func (a *Analyzer) Weekly(ctx context.Context, date model.Date) ([]DaySummary, error) {
	if date.IsZero() {
		return nil, apperr.Validation("deviation.weekly", apperr.CodeInvalidInput, "date is required")
	}
	from, to := date.Week()
	rows, err := a.rows(ctx, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]DaySummary, 7)
	for i := range out {
		out[i].Date = from.AddDays(i)
	}
	for _, r := range rows {
		d := &out[model.DaysBetween(from, r.Date)-1]
		d.Planned++
		switch r.Result {
		case NotExecuted:
			d.Deviated++
		case ChangedMaterial:
			d.ChangedMaterial++
		}
	}
	for i := range out {
		out[i].Executed = out[i].Planned - out[i].Deviated
	}
	return out, nil
}

type key struct {
	date   string
	driver string
}

func (a *Analyzer) rows(ctx context.Context, from, to model.Date) ([]Row, error) {
	planned, err := a.st.ListLines(ctx, store.LineFilter{From: from, To: to, Origin: model.OriginPlan})
	if err != nil {
		return nil, err
	}
	if len(planned) == 0 {
		return []Row{}, nil
	}
	trips, err := a.st.ListTrips(ctx, store.TripFilter{From: from, To: to, Statuses: executedStatuses})
	if err != nil {
		return nil, err
	}
	drivers, err := a.st.ListDrivers(ctx, false)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(drivers))
	for _, d := range drivers {
		names[d.ID] = d.Name
	}
	executed := make(map[key][]string, len(trips))
	for _, t := range trips {
		k := key{t.Date.String(), t.DriverID}
		executed[k] = append(executed[k], t.MaterialID)
	}

	out := make([]Row, 0, len(planned))
	for _, l := range planned {
		mats := executed[key{l.Date.String(), l.DriverID}]
		r := Row{
			Date:            l.Date,
			DriverID:        l.DriverID,
			DriverName:      names[l.DriverID],
			LineID:          l.ID,
			MaterialPlanned: l.MaterialID,
			Result:          Classify(l.MaterialID, mats),
			ExecutedTrips:   len(mats),
		}
		switch r.Result {
		case OK:
			m := l.MaterialID
			r.MaterialExecuted = &m
		case ChangedMaterial:
			m := mats[0]
			r.MaterialExecuted = &m
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].DriverID < out[j].DriverID
	})
	return out, nil
}
