package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/store"
)

const resourceEventCols = `id, kind, resource_kind, resource_id, start_date, end_date, note, created_by, created_at`

func scanResourceEvent(s scanner) (model.ResourceEvent, error) {
	var (
		ev      model.ResourceEvent
		created string
	)
	if err := s.Scan(&ev.ID, &ev.Kind, &ev.ResourceKind, &ev.ResourceID, &ev.Start, &ev.End,
		&ev.Note, &ev.CreatedBy, &created); err != nil {
		return ev, err
	}
	t, err := parseTS(created)
	if err != nil {
		return ev, err
	}
	ev.CreatedAt = t
	return ev, nil
}

func collectResourceEvents(rows *sql.Rows) ([]model.ResourceEvent, error) {
	defer func() { _ = rows.Close() }()
	var res []model.ResourceEvent
	for rows.Next() {
		ev, err := scanResourceEvent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, ev)
	}
	return res, rows.Err()
}

func (r *repo) InsertResourceEvent(ctx context.Context, ev model.ResourceEvent) (int64, error) {
	id, err := r.insertID(ctx, `INSERT INTO resource_events
		(kind, resource_kind, resource_id, start_date, end_date, note, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(ev.Kind), string(ev.ResourceKind), ev.ResourceID, ev.Start, ev.End, ev.Note, ev.CreatedBy, ts(ev.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("insert resource event: %w", err)
	}
	return id, nil
}

func (r *repo) GetResourceEvent(ctx context.Context, id int64) (model.ResourceEvent, error) {
	ev, err := scanResourceEvent(r.queryRow(ctx, `SELECT `+resourceEventCols+` FROM resource_events WHERE id = ?`, id))
	if err != nil {
		return model.ResourceEvent{}, fmt.Errorf("get resource event %d: %w", id, mapErr(err))
	}
	return ev, nil
}

func (r *repo) CloseResourceEvent(ctx context.Context, id int64, end model.Date) error {
	res, err := r.exec(ctx, `UPDATE resource_events SET end_date = ? WHERE id = ?`, end, id)
	if err != nil {
		return fmt.Errorf("close resource event %d: %w", id, err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("close resource event %d: %w", id, err)
	}
	return nil
}

func (r *repo) CoveringEvents(ctx context.Context, rk model.ResourceKind, resourceID string, date model.Date) ([]model.ResourceEvent, error) {
	rows, err := r.query(ctx, `SELECT `+resourceEventCols+` FROM resource_events
		WHERE resource_kind = ? AND resource_id = ? AND start_date <= ? AND (end_date IS NULL OR end_date >= ?)
		ORDER BY start_date, id`, string(rk), resourceID, date, date)
	if err != nil {
		return nil, fmt.Errorf("covering events %s %s: %w", rk, resourceID, err)
	}
	return collectResourceEvents(rows)
}

func (r *repo) ListResourceEvents(ctx context.Context, f store.ResourceEventFilter) ([]model.ResourceEvent, error) {
	var w where
	if f.Kind != "" {
		w.add("kind = ?", string(f.Kind))
	}
	if f.ResourceKind != "" {
		w.add("resource_kind = ?", string(f.ResourceKind))
	}
	if f.ResourceID != "" {
		w.add("resource_id = ?", f.ResourceID)
	}
	if !f.To.IsZero() {
		w.add("start_date <= ?", f.To)
	}
	if !f.From.IsZero() {
		w.add("(end_date IS NULL OR end_date >= ?)", f.From)
	}
	if f.OpenOnly {
		w.add("end_date IS NULL")
	}
	rows, err := r.query(ctx, `SELECT `+resourceEventCols+` FROM resource_events`+w.String()+
		` ORDER BY start_date, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list resource events: %w", err)
	}
	return collectResourceEvents(rows)
}
