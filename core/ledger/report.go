package ledger

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/fleetops/core/apperr"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/store"
)

// Distribution summarizes per-trip delay minutes.
type Distribution struct {
	Trips  int     `json:"trips"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	P90    float64 `json:"p90"`
	Max    int     `json:"max"`
}

// DayDelays aggregates the delays of every trip on one date.
type DayDelays struct {
	Date    model.Date              `json:"date"`
	Totals  map[model.EventKind]int `json:"totals"`
	Total   int                     `json:"total"`
	PerTrip map[int64]int           `json:"per_trip"`
	Stats   Distribution            `json:"stats"`
}

// DailyDelays totals delays per reserved kind across the trips of date and
// describes how delay minutes spread over those trips. Trips without delays
// count as zero.
func (s *Service) DailyDelays(ctx context.Context, date model.Date) (DayDelays, error) {
	if date.IsZero() {
		return DayDelays{}, apperr.Validation("ledger.daily_delays", apperr.CodeInvalidInput, "date is required")
	}
	trips, err := s.st.ListTrips(ctx, store.TripFilter{From: date, To: date})
	if err != nil {
		return DayDelays{}, err
	}
	views, err := s.st.SearchTripEvents(ctx, store.TripEventFilter{From: date, To: date})
	if err != nil {
		return DayDelays{}, err
	}
	byTrip := make(map[int64][]model.TripEvent, len(trips))
	all := make([]model.TripEvent, 0, len(views))
	for _, v := range views {
		byTrip[v.TripID] = append(byTrip[v.TripID], v.TripEvent)
		all = append(all, v.TripEvent)
	}

	out := DayDelays{Date: date, Totals: delayTotals(all), PerTrip: make(map[int64]int, len(trips))}
	for _, k := range model.DelayKinds {
		out.Total += out.Totals[k]
	}
	minutes := make([]float64, 0, len(trips))
	for _, t := range trips {
		n := 0
		for _, v := range delayTotals(byTrip[t.ID]) {
			n += v
		}
		out.PerTrip[t.ID] = n
		minutes = append(minutes, float64(n))
	}
	out.Stats = distribution(minutes)
	return out, nil
}

func distribution(x []float64) Distribution {
	d := Distribution{Trips: len(x)}
	if len(x) == 0 {
		return d
	}
	sort.Float64s(x)
	d.Mean, d.StdDev = stat.MeanStdDev(x, nil)
	if math.IsNaN(d.StdDev) {
		d.StdDev = 0
	}
	d.P90 = stat.Quantile(0.9, stat.Empirical, x, nil)
	d.Max = int(x[len(x)-1])
	return d
}

// ClientDelays is the delay total of one client over a period.
type ClientDelays struct {
	ClientID string                  `json:"client_id"`
	Totals   map[model.EventKind]int `json:"totals"`
	Total    int                     `json:"total"`
}

// DelaysByClient returns per-client delay totals for trips dated in
// [from, to], largest total first.
func (s *Service) DelaysByClient(ctx context.Context, from, to model.Date) ([]ClientDelays, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, apperr.Validation("ledger.delays_by_client", apperr.CodeInvalidInterval, "to %s is before from %s", to, from)
	}
	views, err := s.st.SearchTripEvents(ctx, store.TripEventFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	byClient := map[string][]model.TripEvent{}
	for _, v := range views {
		if v.Kind.IsDelay() {
			byClient[v.ClientID] = append(byClient[v.ClientID], v.TripEvent)
		}
	}
	out := make([]ClientDelays, 0, len(byClient))
	for client, evs := range byClient {
		c := ClientDelays{ClientID: client, Totals: delayTotals(evs)}
		for _, n := range c.Totals {
			c.Total += n
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].ClientID < out[j].ClientID
	})
	return out, nil
}
