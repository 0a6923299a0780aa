package export

import (
	"github.com/kilianp07/fleetops/core/deviation"
	"github.com/kilianp07/fleetops/core/model"
)

// PlanTable lists lines.
func PlanTable(lines []model.Line) Table {
	t := Table{
		Name:    "Plan",
		Header:  []string{"id", "date", "driver_id", "tractor_id", "material_id", "origin", "status", "created_by"},
		Records: lines,
	}
	for _, l := range lines {
		t.Rows = append(t.Rows, []any{
			l.ID, l.Date, l.DriverID, l.TractorID, l.MaterialID, string(l.Origin), string(l.Status), l.CreatedBy,
		})
	}
	return t
}

// TripsTable lists trips.
func TripsTable(trips []model.Trip) Table {
	t := Table{
		Name: "Trips",
		Header: []string{"id", "line_id", "date", "driver_id", "tractor_id", "material_id", "client_id",
			"origin_id", "destination_id", "status", "created_by", "finalized_at"},
		Records: trips,
	}
	for _, tr := range trips {
		t.Rows = append(t.Rows, []any{
			tr.ID, tr.LineID, tr.Date, tr.DriverID, tr.TractorID, tr.MaterialID, tr.ClientID,
			tr.OriginID, tr.DestinationID, string(tr.Status), tr.CreatedBy, tr.FinalizedAt,
		})
	}
	return t
}

// DeviationTable lists deviation rows.
func DeviationTable(rows []deviation.Row) Table {
	t := Table{
		Name: "Deviation",
		Header: []string{"date", "driver_id", "driver_name", "line_id", "material_planned",
			"material_executed", "result", "executed_trips"},
		Records: rows,
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{
			r.Date, r.DriverID, r.DriverName, r.LineID, r.MaterialPlanned, r.MaterialExecuted,
			string(r.Result), r.ExecutedTrips,
		})
	}
	return t
}
