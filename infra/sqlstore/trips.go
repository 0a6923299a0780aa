package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/store"
)

const tripCols = `id, line_id, date, driver_id, tractor_id, material_id, client_id, origin_id, destination_id,
	template_id, line_origin, status, note, created_by, created_at, finalized_by, finalized_at`

func scanTrip(s scanner) (model.Trip, error) {
	var (
		t         model.Trip
		created   string
		finalized sql.NullString
	)
	if err := s.Scan(&t.ID, &t.LineID, &t.Date, &t.DriverID, &t.TractorID, &t.MaterialID, &t.ClientID,
		&t.OriginID, &t.DestinationID, &t.TemplateID, &t.LineOrigin, &t.Status, &t.Note, &t.CreatedBy,
		&created, &t.FinalizedBy, &finalized); err != nil {
		return t, err
	}
	var err error
	if t.CreatedAt, err = parseTS(created); err != nil {
		return t, err
	}
	if t.FinalizedAt, err = parseNullTS(finalized); err != nil {
		return t, err
	}
	return t, nil
}

func (r *repo) InsertTrip(ctx context.Context, t model.Trip) (int64, error) {
	id, err := r.insertID(ctx, `INSERT INTO trips
		(line_id, date, driver_id, tractor_id, material_id, client_id, origin_id, destination_id,
		 template_id, line_origin, status, note, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.LineID, t.Date, t.DriverID, t.TractorID, t.MaterialID, t.ClientID, t.OriginID, t.DestinationID,
		t.TemplateID, string(t.LineOrigin), string(t.Status), t.Note, t.CreatedBy, ts(t.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("insert trip: %w", err)
	}
	return id, nil
}

func (r *repo) GetTrip(ctx context.Context, id int64) (model.Trip, error) {
	t, err := scanTrip(r.queryRow(ctx, `SELECT `+tripCols+` FROM trips WHERE id = ?`, id))
	if err != nil {
		return model.Trip{}, fmt.Errorf("get trip %d: %w", id, mapErr(err))
	}
	return t, nil
}

func (r *repo) TripForLine(ctx context.Context, lineID int64) (model.Trip, error) {
	t, err := scanTrip(r.queryRow(ctx, `SELECT `+tripCols+` FROM trips WHERE line_id = ?`, lineID))
	if err != nil {
		return model.Trip{}, fmt.Errorf("trip for line %d: %w", lineID, mapErr(err))
	}
	return t, nil
}

func (r *repo) ListTrips(ctx context.Context, f store.TripFilter) ([]model.Trip, error) {
	w := &where{}
	w.dateRange("date", f.From, f.To)
	if f.DriverID != "" {
		w.add("driver_id = ?", f.DriverID)
	}
	if f.ClientID != "" {
		w.add("client_id = ?", f.ClientID)
	}
	statuses := make([]string, len(f.Statuses))
	for i, s := range f.Statuses {
		statuses[i] = string(s)
	}
	in(w, "status", statuses)
	rows, err := r.query(ctx, `SELECT `+tripCols+` FROM trips`+w.String()+` ORDER BY date, driver_id, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var res []model.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (r *repo) FinalizeTrip(ctx context.Context, id int64, actor string, at time.Time) (bool, error) {
	res, err := r.exec(ctx, `UPDATE trips SET status = ?, finalized_by = ?, finalized_at = ?
		WHERE id = ? AND status = ?`,
		string(model.TripFinalized), actor, ts(at), id, string(model.TripConfirmed))
	if err != nil {
		return false, fmt.Errorf("finalize trip %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
