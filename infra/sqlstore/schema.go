package sqlstore

import (
	"context"
	"fmt"
	"strings"
)

// schema is applied in order; {{serial}} is replaced by the dialect's
// auto-increment primary key.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS tractors (
		id TEXT PRIMARY KEY,
		plate TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		state TEXT NOT NULL DEFAULT 'OPERATIONAL' CHECK (state IN ('OPERATIONAL', 'MAINTENANCE'))
	)`,
	`CREATE TABLE IF NOT EXISTS drivers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		tractor_id TEXT REFERENCES tractors(id)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_drivers_tractor
		ON drivers(tractor_id) WHERE tractor_id IS NOT NULL AND active = 1`,
	`CREATE TABLE IF NOT EXISTS materials (id TEXT PRIMARY KEY, name TEXT NOT NULL, active INTEGER NOT NULL DEFAULT 1)`,
	`CREATE TABLE IF NOT EXISTS clients (id TEXT PRIMARY KEY, name TEXT NOT NULL, active INTEGER NOT NULL DEFAULT 1)`,
	`CREATE TABLE IF NOT EXISTS origins (id TEXT PRIMARY KEY, name TEXT NOT NULL, active INTEGER NOT NULL DEFAULT 1)`,
	`CREATE TABLE IF NOT EXISTS destinations (id TEXT PRIMARY KEY, name TEXT NOT NULL, active INTEGER NOT NULL DEFAULT 1)`,
	`CREATE TABLE IF NOT EXISTS resource_events (
		id {{serial}},
		kind TEXT NOT NULL CHECK (kind IN ('REST', 'MAINTENANCE')),
		resource_kind TEXT NOT NULL CHECK (resource_kind IN ('DRIVER', 'TRACTOR')),
		resource_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		note TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL,
		created_at TEXT NOT NULL,
		CHECK (end_date IS NULL OR end_date >= start_date)
	)`,
	`CREATE INDEX IF NOT EXISTS ix_resource_events_resource
		ON resource_events(resource_kind, resource_id, start_date)`,
	`CREATE TABLE IF NOT EXISTS trip_templates (
		id {{serial}},
		name TEXT NOT NULL,
		material_id TEXT NOT NULL REFERENCES materials(id),
		client_id TEXT REFERENCES clients(id),
		origin_id TEXT REFERENCES origins(id),
		destination_id TEXT REFERENCES destinations(id),
		note TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS lines (
		id {{serial}},
		date TEXT NOT NULL,
		driver_id TEXT NOT NULL REFERENCES drivers(id),
		material_id TEXT NOT NULL REFERENCES materials(id),
		tractor_id TEXT REFERENCES tractors(id),
		origin TEXT NOT NULL CHECK (origin IN ('PLAN', 'OFF_PLAN')),
		status TEXT NOT NULL CHECK (status IN ('PENDING', 'CONFIRMED', 'CANCELLED', 'TRIP_GENERATED')),
		created_by TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_lines_plan_date_driver
		ON lines(date, driver_id) WHERE origin = 'PLAN'`,
	`CREATE INDEX IF NOT EXISTS ix_lines_date ON lines(date, status)`,
	`CREATE TABLE IF NOT EXISTS trips (
		id {{serial}},
		line_id BIGINT UNIQUE REFERENCES lines(id),
		date TEXT NOT NULL,
		driver_id TEXT NOT NULL REFERENCES drivers(id),
		tractor_id TEXT REFERENCES tractors(id),
		material_id TEXT NOT NULL REFERENCES materials(id),
		client_id TEXT NOT NULL REFERENCES clients(id),
		origin_id TEXT NOT NULL REFERENCES origins(id),
		destination_id TEXT NOT NULL REFERENCES destinations(id),
		template_id BIGINT REFERENCES trip_templates(id),
		line_origin TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL CHECK (status IN ('CONFIRMED', 'FINALIZED')),
		note TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL,
		created_at TEXT NOT NULL,
		finalized_by TEXT NOT NULL DEFAULT '',
		finalized_at TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS ix_trips_date ON trips(date, driver_id)`,
	`CREATE TABLE IF NOT EXISTS trip_events (
		id {{serial}},
		trip_id BIGINT NOT NULL REFERENCES trips(id),
		kind TEXT NOT NULL,
		start_ts TEXT NOT NULL,
		end_ts TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL,
		created_at TEXT NOT NULL,
		CHECK (end_ts > start_ts)
	)`,
	`CREATE INDEX IF NOT EXISTS ix_trip_events_trip ON trip_events(trip_id, start_ts)`,
}

// Migrate creates every table and index in a single transaction.
func (s *Store) Migrate(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	for i, stmt := range schema {
		stmt = strings.ReplaceAll(stmt, "{{serial}}", s.d.serial)
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: exec statement #%d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit: %w", err)
	}
	return nil
}
