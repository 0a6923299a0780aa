package sqlstore

import (
	"context"
	"fmt"

	"github.com/kilianp07/fleetops/core/model"
)

const templateCols = `id, name, material_id, client_id, origin_id, destination_id, note, active`

func scanTemplate(s scanner) (model.Template, error) {
	var t model.Template
	err := s.Scan(&t.ID, &t.Name, &t.MaterialID, &t.ClientID, &t.OriginID, &t.DestinationID, &t.Note, &t.Active)
	return t, err
}

func (r *repo) InsertTemplate(ctx context.Context, t model.Template) (int64, error) {
	id, err := r.insertID(ctx, `INSERT INTO trip_templates
		(name, material_id, client_id, origin_id, destination_id, note, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.MaterialID, t.ClientID, t.OriginID, t.DestinationID, t.Note, boolInt(t.Active))
	if err != nil {
		return 0, fmt.Errorf("insert template %q: %w", t.Name, err)
	}
	return id, nil
}

func (r *repo) GetTemplate(ctx context.Context, id int64) (model.Template, error) {
	t, err := scanTemplate(r.queryRow(ctx, `SELECT `+templateCols+` FROM trip_templates WHERE id = ?`, id))
	if err != nil {
		return model.Template{}, fmt.Errorf("get template %d: %w", id, mapErr(err))
	}
	return t, nil
}

func (r *repo) ListTemplates(ctx context.Context, activeOnly bool) ([]model.Template, error) {
	var w where
	if activeOnly {
		w.add("active = 1")
	}
	rows, err := r.query(ctx, `SELECT `+templateCols+` FROM trip_templates`+w.String()+` ORDER BY name, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var res []model.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (r *repo) DeactivateTemplate(ctx context.Context, id int64) (bool, error) {
	res, err := r.exec(ctx, `UPDATE trip_templates SET active = 0 WHERE id = ? AND active = 1`, id)
	if err != nil {
		return false, fmt.Errorf("deactivate template %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
