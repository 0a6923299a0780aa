package export

import (
	"context"
	"fmt"

	"github.com/kilianp07/fleetops/core/deviation"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/store"
)

// Kinds lists the listings Build knows.
var Kinds = []string{"plan", "trips", "deviation"}

// Build reads the listing of the given kind for the week holding date.
func Build(ctx context.Context, r store.Repo, kind string, date model.Date) (Table, error) {
	from, to := date.Week()
	switch kind {
	case "plan":
		ls, err := r.ListLines(ctx, store.LineFilter{From: from, To: to, Origin: model.OriginPlan})
		if err != nil {
			return Table{}, err
		}
		return PlanTable(ls), nil
	case "trips":
		ts, err := r.ListTrips(ctx, store.TripFilter{From: from, To: to})
		if err != nil {
			return Table{}, err
		}
		return TripsTable(ts), nil
	case "deviation":
		rows, err := deviation.NewAnalyzer(r).Range(ctx, from, to)
		if err != nil {
			return Table{}, err
		}
		return DeviationTable(rows), nil
	default:
		return Table{}, fmt.Errorf("unknown export %q", kind)
	}
}
