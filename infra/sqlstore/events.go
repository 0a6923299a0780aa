package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/store"
)

const tripEventCols = `e.id, e.trip_id, e.kind, e.start_ts, e.end_ts, e.note, e.created_by, e.created_at`

func scanTripEvent(s scanner, extra ...any) (model.TripEvent, error) {
	var (
		e              model.TripEvent
		start, created string
		end            sql.NullString
	)
	dest := append([]any{&e.ID, &e.TripID, &e.Kind, &start, &end, &e.Note, &e.CreatedBy, &created}, extra...)
	if err := s.Scan(dest...); err != nil {
		return e, err
	}
	var err error
	if e.Start, err = parseTS(start); err != nil {
		return e, err
	}
	if e.End, err = parseNullTS(end); err != nil {
		return e, err
	}
	if e.CreatedAt, err = parseTS(created); err != nil {
		return e, err
	}
	return e, nil
}

func (r *repo) InsertTripEvent(ctx context.Context, e model.TripEvent) (int64, error) {
	id, err := r.insertID(ctx, `INSERT INTO trip_events (trip_id, kind, start_ts, end_ts, note, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.TripID, string(e.Kind), ts(e.Start), nullTS(e.End), e.Note, e.CreatedBy, ts(e.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("insert trip event: %w", err)
	}
	return id, nil
}

func (r *repo) ListTripEvents(ctx context.Context, tripID int64) ([]model.TripEvent, error) {
	rows, err := r.query(ctx, `SELECT `+tripEventCols+` FROM trip_events e
		WHERE e.trip_id = ? ORDER BY e.start_ts, e.id`, tripID)
	if err != nil {
		return nil, fmt.Errorf("list trip events %d: %w", tripID, err)
	}
	defer func() { _ = rows.Close() }()
	var res []model.TripEvent
	for rows.Next() {
		e, err := scanTripEvent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (r *repo) SearchTripEvents(ctx context.Context, f store.TripEventFilter) ([]store.TripEventView, error) {
	w := &where{}
	w.dateRange("t.date", f.From, f.To)
	if f.Kind != "" {
		w.add("e.kind = ?", string(f.Kind))
	}
	if f.DriverID != "" {
		w.add("t.driver_id = ?", f.DriverID)
	}
	if f.ClientID != "" {
		w.add("t.client_id = ?", f.ClientID)
	}
	rows, err := r.query(ctx, `SELECT `+tripEventCols+`, t.date, t.driver_id, t.client_id
		FROM trip_events e JOIN trips t ON t.id = e.trip_id`+w.String()+
		` ORDER BY t.date, e.start_ts, e.id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("search trip events: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var res []store.TripEventView
	for rows.Next() {
		var v store.TripEventView
		e, err := scanTripEvent(rows, &v.Date, &v.DriverID, &v.ClientID)
		if err != nil {
			return nil, err
		}
		v.TripEvent = e
		res = append(res, v)
	}
	return res, rows.Err()
}
