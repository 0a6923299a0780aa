package planning

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/fleetops/core/apperr"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/store"
)

// ListWeek returns the PLAN lines of the week containing date.
func (g *Generator) ListWeek(ctx context.Context, date model.Date) ([]model.Line, error) {
	from, to := date.Week()
	return g.st.ListLines(ctx, store.LineFilter{From: from, To: to, Origin: model.OriginPlan})
}

// WeekCounters summarizes the plan of a week.
type WeekCounters struct {
	WeekStart      model.Date               `json:"week_start"`
	Total          int                      `json:"total"`
	DriversPlanned int                      `json:"drivers_planned"`
	ByStatus       map[model.LineStatus]int `json:"by_status"`
	ByMaterial     map[string]int           `json:"by_material"`
	ByDay          map[string]int           `json:"by_day"`
}

// Counters returns the plan counters of the week containing date.
func (g *Generator) Counters(ctx context.Context, date model.Date) (WeekCounters, error) {
	c := WeekCounters{
		WeekStart:  date.WeekStart(),
		ByStatus:   map[model.LineStatus]int{},
		ByMaterial: map[string]int{},
		ByDay:      map[string]int{},
	}
	ls, err := g.ListWeek(ctx, date)
	if err != nil {
		return c, err
	}
	drivers := map[string]bool{}
	for _, l := range ls {
		c.Total++
		c.ByStatus[l.Status]++
		c.ByMaterial[l.MaterialID]++
		c.ByDay[l.Date.String()]++
		drivers[l.DriverID] = true
	}
	c.DriversPlanned = len(drivers)
	return c, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// ParseWeekdays accepts English day names ("mon", "Monday") or numbers
// (0 = Sunday) separated by commas.
func ParseWeekdays(s string) ([]time.Weekday, error) {
	var out []time.Weekday
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if n, err := strconv.Atoi(part); err == nil && n >= 0 && n <= 6 {
			out = append(out, time.Weekday(n))
			continue
		}
		if len(part) >= 3 {
			if wd, ok := weekdayNames[part[:3]]; ok && strings.HasPrefix(strings.ToLower(wd.String()), part) {
				out = append(out, wd)
				continue
			}
		}
		return nil, apperr.Validation("planning.weekdays", apperr.CodeInvalidInput, "unknown weekday %q", part)
	}
	return out, nil
}
