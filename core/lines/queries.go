package lines

import (
	"context"

	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/store"
)

// ListDay returns every line of date.
func (s *Service) ListDay(ctx context.Context, date model.Date) ([]model.Line, error) {
	return s.st.ListLines(ctx, store.LineFilter{From: date, To: date})
}

// List returns the lines matching f.
func (s *Service) List(ctx context.Context, f store.LineFilter) ([]model.Line, error) {
	return s.st.ListLines(ctx, f)
}

// Pending returns the lines still waiting for a trip, PENDING or CONFIRMED.
func (s *Service) Pending(ctx context.Context) ([]model.Line, error) {
	return s.st.ListLines(ctx, store.LineFilter{
		Statuses: []model.LineStatus{model.LinePending, model.LineConfirmed},
	})
}

// DayKPIs counts the lines of a day by status and origin.
type DayKPIs struct {
	Date          model.Date `json:"date"`
	Total         int        `json:"total"`
	Pending       int        `json:"pending"`
	Confirmed     int        `json:"confirmed"`
	Cancelled     int        `json:"cancelled"`
	TripGenerated int        `json:"trip_generated"`
	OffPlan       int        `json:"off_plan"`
}

// DayKPIs returns the line counters of date.
func (s *Service) DayKPIs(ctx context.Context, date model.Date) (DayKPIs, error) {
	k := DayKPIs{Date: date}
	ls, err := s.ListDay(ctx, date)
	if err != nil {
		return k, err
	}
	for _, l := range ls {
		k.Total++
		switch l.Status {
		case model.LinePending:
			k.Pending++
		case model.LineConfirmed:
			k.Confirmed++
		case model.LineCancelled:
			k.Cancelled++
		case model.LineTripGenerated:
			k.TripGenerated++
		}
		if l.Origin == model.OriginOffPlan {
			k.OffPlan++
		}
	}
	return k, nil
}
