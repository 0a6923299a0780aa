// Package testfleet builds SQLite-backed stores with a small reference fleet
// for package tests.
package testfleet

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/infra/sqlstore"
)

// Fixture identifiers.
const (
	Ana   = "D1"
	Bruno = "D2"
	Carla = "D3"

	Truck1 = "T1"
	Truck2 = "T2"
	Truck3 = "T3"

	Sand   = "SAND"
	Gravel = "GRAVEL"

	Client      = "C1"
	Origin      = "O1"
	Destination = "X1"

	Actor = "ops"
)

// NewStore opens an empty SQLite store in a temporary directory.
func NewStore(t testing.TB) *sqlstore.Store {
	t.Helper()
	st, err := sqlstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "fleet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// Seeded opens a store holding three drivers, three tractors and one entry
// of every reference directory (two materials). Ana drives T1, Bruno drives
// T2, Carla has no tractor and T3 is loose.
func Seeded(t testing.TB) *sqlstore.Store {
	t.Helper()
	st := NewStore(t)
	ctx := context.Background()
	for _, tr := range []model.Tractor{
		{ID: Truck1, Plate: "AA-100", Active: true, State: model.TractorOperational},
		{ID: Truck2, Plate: "AA-200", Active: true, State: model.TractorOperational},
		{ID: Truck3, Plate: "AA-300", Active: true, State: model.TractorOperational},
	} {
		require.NoError(t, st.UpsertTractor(ctx, tr))
	}
	for _, d := range []model.Driver{
		{ID: Ana, Name: "Ana", Active: true, TractorID: ptr(Truck1)},
		{ID: Bruno, Name: "Bruno", Active: true, TractorID: ptr(Truck2)},
		{ID: Carla, Name: "Carla", Active: true},
	} {
		require.NoError(t, st.UpsertDriver(ctx, d))
	}
	refs := map[model.RefKind][]model.Ref{
		model.RefMaterial:    {{ID: Sand, Name: "Sand", Active: true}, {ID: Gravel, Name: "Gravel", Active: true}},
		model.RefClient:      {{ID: Client, Name: "Quarry Co", Active: true}},
		model.RefOrigin:      {{ID: Origin, Name: "North Pit", Active: true}},
		model.RefDestination: {{ID: Destination, Name: "Plant", Active: true}},
	}
	for kind, list := range refs {
		for _, r := range list {
			require.NoError(t, st.UpsertRef(ctx, kind, r))
		}
	}
	return st
}

// Line inserts a line directly and returns it.
func Line(t testing.TB, st *sqlstore.Store, date, driver, material string, origin model.LineOrigin, status model.LineStatus) model.Line {
	t.Helper()
	l := model.Line{
		Date:       model.MustDate(date),
		DriverID:   driver,
		MaterialID: material,
		Origin:     origin,
		Status:     status,
		CreatedBy:  Actor,
	}
	id, err := st.InsertLine(context.Background(), l)
	require.NoError(t, err)
	got, err := st.GetLine(context.Background(), id)
	require.NoError(t, err)
	return got
}

// Trip inserts a trip directly, optionally bound to a line.
func Trip(t testing.TB, st *sqlstore.Store, lineID *int64, date, driver, material string, status model.TripStatus) model.Trip {
	t.Helper()
	tr := model.Trip{
		LineID:        lineID,
		Date:          model.MustDate(date),
		DriverID:      driver,
		MaterialID:    material,
		ClientID:      Client,
		OriginID:      Origin,
		DestinationID: Destination,
		Status:        status,
		CreatedBy:     Actor,
	}
	id, err := st.InsertTrip(context.Background(), tr)
	require.NoError(t, err)
	got, err := st.GetTrip(context.Background(), id)
	require.NoError(t, err)
	return got
}

func ptr[T any](v T) *T { return &v }
