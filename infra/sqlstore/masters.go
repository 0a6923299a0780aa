package sqlstore

import (
	"context"
	"fmt"

	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/store"
)

const driverCols = `id, name, active, tractor_id`

func scanDriver(s scanner) (model.Driver, error) {
	var d model.Driver
	err := s.Scan(&d.ID, &d.Name, &d.Active, &d.TractorID)
	return d, err
}

func (r *repo) GetDriver(ctx context.Context, id string) (model.Driver, error) {
	d, err := scanDriver(r.queryRow(ctx, `SELECT `+driverCols+` FROM drivers WHERE id = ?`, id))
	if err != nil {
		return model.Driver{}, fmt.Errorf("get driver %s: %w", id, mapErr(err))
	}
	return d, nil
}

func (r *repo) ListDrivers(ctx context.Context, activeOnly bool) ([]model.Driver, error) {
	var w where
	if activeOnly {
		w.add("active = 1")
	}
	rows, err := r.query(ctx, `SELECT `+driverCols+` FROM drivers`+w.String()+` ORDER BY name, id`, w.args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

func (r *repo) UpsertDriver(ctx context.Context, d model.Driver) error {
	_, err := r.exec(ctx, `INSERT INTO drivers (id, name, active, tractor_id) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, active = excluded.active, tractor_id = excluded.tractor_id`,
		d.ID, d.Name, boolInt(d.Active), d.TractorID)
	if err != nil {
		return fmt.Errorf("upsert driver %s: %w", d.ID, mapErr(err))
	}
	return nil
}

func (r *repo) SetDriverTractor(ctx context.Context, driverID string, tractorID *string) error {
	res, err := r.exec(ctx, `UPDATE drivers SET tractor_id = ? WHERE id = ?`, tractorID, driverID)
	if err != nil {
		return fmt.Errorf("bind driver %s: %w", driverID, mapErr(err))
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("bind driver %s: %w", driverID, err)
	}
	return nil
}

func (r *repo) UnbindTractor(ctx context.Context, tractorID string) (int64, error) {
	res, err := r.exec(ctx, `UPDATE drivers SET tractor_id = NULL WHERE tractor_id = ?`, tractorID)
	if err != nil {
		return 0, fmt.Errorf("unbind tractor %s: %w", tractorID, err)
	}
	return res.RowsAffected()
}

func (r *repo) DriverForTractor(ctx context.Context, tractorID string) (model.Driver, error) {
	d, err := scanDriver(r.queryRow(ctx, `SELECT `+driverCols+` FROM drivers
		WHERE tractor_id = ? AND active = 1 ORDER BY id LIMIT 1`, tractorID))
	if err != nil {
		return model.Driver{}, fmt.Errorf("driver for tractor %s: %w", tractorID, mapErr(err))
	}
	return d, nil
}

const tractorCols = `id, plate, active, state`

func scanTractor(s scanner) (model.Tractor, error) {
	var t model.Tractor
	err := s.Scan(&t.ID, &t.Plate, &t.Active, &t.State)
	return t, err
}

func (r *repo) GetTractor(ctx context.Context, id string) (model.Tractor, error) {
	t, err := scanTractor(r.queryRow(ctx, `SELECT `+tractorCols+` FROM tractors WHERE id = ?`, id))
	if err != nil {
		return model.Tractor{}, fmt.Errorf("get tractor %s: %w", id, mapErr(err))
	}
	return t, nil
}

func (r *repo) ListTractors(ctx context.Context, activeOnly bool) ([]model.Tractor, error) {
	var w where
	if activeOnly {
		w.add("active = 1")
	}
	rows, err := r.query(ctx, `SELECT `+tractorCols+` FROM tractors`+w.String()+` ORDER BY plate, id`, w.args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Tractor
	for rows.Next() {
		t, err := scanTractor(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (r *repo) UpsertTractor(ctx context.Context, t model.Tractor) error {
	if t.State == "" {
		t.State = model.TractorOperational
	}
	_, err := r.exec(ctx, `INSERT INTO tractors (id, plate, active, state) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET plate = excluded.plate, active = excluded.active, state = excluded.state`,
		t.ID, t.Plate, boolInt(t.Active), string(t.State))
	if err != nil {
		return fmt.Errorf("upsert tractor %s: %w", t.ID, mapErr(err))
	}
	return nil
}

func (r *repo) SetTractorState(ctx context.Context, id string, state model.TractorState) error {
	res, err := r.exec(ctx, `UPDATE tractors SET state = ? WHERE id = ?`, string(state), id)
	if err != nil {
		return fmt.Errorf("set tractor %s state: %w", id, err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("set tractor %s state: %w", id, err)
	}
	return nil
}

func refTable(kind model.RefKind) (string, error) {
	switch kind {
	case model.RefMaterial:
		return "materials", nil
	case model.RefClient:
		return "clients", nil
	case model.RefOrigin:
		return "origins", nil
	case model.RefDestination:
		return "destinations", nil
	}
	return "", fmt.Errorf("unknown reference kind %q", kind)
}

func (r *repo) GetRef(ctx context.Context, kind model.RefKind, id string) (model.Ref, error) {
	table, err := refTable(kind)
	if err != nil {
		return model.Ref{}, err
	}
	var ref model.Ref
	err = r.queryRow(ctx, `SELECT id, name, active FROM `+table+` WHERE id = ?`, id).Scan(&ref.ID, &ref.Name, &ref.Active)
	if err != nil {
		return model.Ref{}, fmt.Errorf("get %s %s: %w", kind, id, mapErr(err))
	}
	return ref, nil
}

func (r *repo) ListRefs(ctx context.Context, kind model.RefKind) ([]model.Ref, error) {
	table, err := refTable(kind)
	if err != nil {
		return nil, err
	}
	rows, err := r.query(ctx, `SELECT id, name, active FROM `+table+` ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.Ref
	for rows.Next() {
		var ref model.Ref
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Active); err != nil {
			return nil, err
		}
		res = append(res, ref)
	}
	return res, rows.Err()
}

func (r *repo) UpsertRef(ctx context.Context, kind model.RefKind, ref model.Ref) error {
	table, err := refTable(kind)
	if err != nil {
		return err
	}
	_, err = r.exec(ctx, `INSERT INTO `+table+` (id, name, active) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, active = excluded.active`,
		ref.ID, ref.Name, boolInt(ref.Active))
	if err != nil {
		return fmt.Errorf("upsert %s %s: %w", kind, ref.ID, mapErr(err))
	}
	return nil
}

var _ store.MasterRepo = (*repo)(nil)
