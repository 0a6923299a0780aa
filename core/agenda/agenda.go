// Package agenda merges lines, trips and resource events into a single
// chronological listing.
package agenda

import (
	"context"
	"sort"

	"github.com/kilianp07/fleetops/core/apperr"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/store"
)

// MaxDays bounds the range of one agenda query.
const MaxDays = 62

// Kind is the source of an agenda item.
type Kind string

const (
	KindLine        Kind = "line"
	KindTrip        Kind = "trip"
	KindRest        Kind = "rest"
	KindMaintenance Kind = "maintenance"
)

// kindOrder sorts items of the same day and resource.
var kindOrder = map[Kind]int{KindRest: 0, KindMaintenance: 1, KindLine: 2, KindTrip: 3}

// Item is one entry of the agenda.
type Item struct {
	Date       model.Date `json:"date"`
	Kind       Kind       `json:"kind"`
	ID         int64      `json:"id"`
	DriverID   string     `json:"driver_id,omitempty"`
	TractorID  string     `json:"tractor_id,omitempty"`
	MaterialID string     `json:"material_id,omitempty"`
	Status     string     `json:"status,omitempty"`
	Note       string     `json:"note,omitempty"`
}

// Items lists the agenda of [from, to], one item per line, trip and per
// day covered by a rest period or maintenance window. Lines that produced a
// trip are reported through the trip only.
func Items(ctx context.Context, r store.Repo, from, to model.Date) ([]Item, error) {
	const op = "agenda.items"
	if from.IsZero() || to.IsZero() {
		return nil, apperr.Validation(op, apperr.CodeInvalidInput, "from and to are required")
	}
	if to.Before(from) {
		return nil, apperr.Validation(op, apperr.CodeInvalidInterval, "to %s is before from %s", to, from)
	}
	if model.DaysBetween(from, to) > MaxDays {
		return nil, apperr.Validation(op, apperr.CodeInvalidInterval, "range exceeds %d days", MaxDays)
	}

	var out []Item
	lines, err := r.ListLines(ctx, store.LineFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		if l.Status == model.LineTripGenerated {
			continue
		}
		out = append(out, Item{
			Date: l.Date, Kind: KindLine, ID: l.ID, DriverID: l.DriverID, TractorID: deref(l.TractorID),
			MaterialID: l.MaterialID, Status: string(l.Status), Note: string(l.Origin),
		})
	}

	trips, err := r.ListTrips(ctx, store.TripFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	for _, t := range trips {
		out = append(out, Item{
			Date: t.Date, Kind: KindTrip, ID: t.ID, DriverID: t.DriverID, TractorID: deref(t.TractorID),
			MaterialID: t.MaterialID, Status: string(t.Status), Note: t.Note,
		})
	}

	evs, err := r.ListResourceEvents(ctx, store.ResourceEventFilter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	for _, ev := range evs {
		it := Item{Kind: KindRest, ID: ev.ID, Note: ev.Note}
		if ev.Kind == model.EventMaintenance {
			it.Kind = KindMaintenance
		}
		if ev.ResourceKind == model.ResourceDriver {
			it.DriverID = ev.ResourceID
		} else {
			it.TractorID = ev.ResourceID
		}
		if ev.Open() {
			it.Status = "OPEN"
		}
		for d := from; !d.After(to); d = d.AddDays(1) {
			if ev.Contains(d) {
				it.Date = d
				out = append(out, it)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if kindOrder[a.Kind] != kindOrder[b.Kind] {
			return kindOrder[a.Kind] < kindOrder[b.Kind]
		}
		return a.ID < b.ID
	})
	if out == nil {
		out = []Item{}
	}
	return out, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
