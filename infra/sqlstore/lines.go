package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/store"
)

const lineCols = `id, date, driver_id, material_id, tractor_id, origin, status, created_by, created_at, updated_at`

func scanLine(s scanner) (model.Line, error) {
	var (
		l                model.Line
		created, updated string
	)
	if err := s.Scan(&l.ID, &l.Date, &l.DriverID, &l.MaterialID, &l.TractorID, &l.Origin, &l.Status,
		&l.CreatedBy, &created, &updated); err != nil {
		return l, err
	}
	var err error
	if l.CreatedAt, err = parseTS(created); err != nil {
		return l, err
	}
	if l.UpdatedAt, err = parseTS(updated); err != nil {
		return l, err
	}
	return l, nil
}

func lineWhere(f store.LineFilter) *where {
	w := &where{}
	w.dateRange("date", f.From, f.To)
	if f.Origin != "" {
		w.add("origin = ?", string(f.Origin))
	}
	if f.DriverID != "" {
		w.add("driver_id = ?", f.DriverID)
	}
	statuses := make([]string, len(f.Statuses))
	for i, s := range f.Statuses {
		statuses[i] = string(s)
	}
	in(w, "status", statuses)
	return w
}

func (r *repo) InsertLine(ctx context.Context, l model.Line) (int64, error) {
	created := ts(l.CreatedAt)
	id, err := r.insertID(ctx, `INSERT INTO lines
		(date, driver_id, material_id, tractor_id, origin, status, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.Date, l.DriverID, l.MaterialID, l.TractorID, string(l.Origin), string(l.Status), l.CreatedBy, created, created)
	if err != nil {
		return 0, fmt.Errorf("insert line %s/%s: %w", l.Date, l.DriverID, err)
	}
	return id, nil
}

func (r *repo) GetLine(ctx context.Context, id int64) (model.Line, error) {
	l, err := scanLine(r.queryRow(ctx, `SELECT `+lineCols+` FROM lines WHERE id = ?`, id))
	if err != nil {
		return model.Line{}, fmt.Errorf("get line %d: %w", id, mapErr(err))
	}
	return l, nil
}

func (r *repo) ListLines(ctx context.Context, f store.LineFilter) ([]model.Line, error) {
	w := lineWhere(f)
	rows, err := r.query(ctx, `SELECT `+lineCols+` FROM lines`+w.String()+` ORDER BY date, driver_id, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list lines: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var res []model.Line
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

func (r *repo) CountLines(ctx context.Context, f store.LineFilter) (int, error) {
	w := lineWhere(f)
	var n int
	if err := r.queryRow(ctx, `SELECT COUNT(*) FROM lines`+w.String(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count lines: %w", err)
	}
	return n, nil
}

func (r *repo) TransitionLine(ctx context.Context, id int64, from []model.LineStatus, to model.LineStatus) (bool, error) {
	w := &where{}
	w.add("id = ?", id)
	statuses := make([]string, len(from))
	for i, s := range from {
		statuses[i] = string(s)
	}
	in(w, "status", statuses)
	args := append([]any{string(to), ts(time.Now())}, w.args...)
	res, err := r.exec(ctx, `UPDATE lines SET status = ?, updated_at = ?`+w.String(), args...)
	if err != nil {
		return false, fmt.Errorf("transition line %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *repo) TransitionLines(ctx context.Context, f store.LineFilter, to model.LineStatus) (int64, error) {
	w := lineWhere(f)
	args := append([]any{string(to), ts(time.Now())}, w.args...)
	res, err := r.exec(ctx, `UPDATE lines SET status = ?, updated_at = ?`+w.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("transition lines: %w", err)
	}
	return res.RowsAffected()
}

func (r *repo) UpdateLine(ctx context.Context, l model.Line) error {
	res, err := r.exec(ctx, `UPDATE lines SET material_id = ?, tractor_id = ?, updated_at = ? WHERE id = ?`,
		l.MaterialID, l.TractorID, ts(time.Now()), l.ID)
	if err != nil {
		return fmt.Errorf("update line %d: %w", l.ID, mapErr(err))
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("update line %d: %w", l.ID, err)
	}
	return nil
}

func (r *repo) DeleteLine(ctx context.Context, id int64) error {
	res, err := r.exec(ctx, `DELETE FROM lines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete line %d: %w", id, err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("delete line %d: %w", id, err)
	}
	return nil
}
