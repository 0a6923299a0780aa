package seed_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/infra/logger"
	"github.com/kilianp07/fleetops/infra/seed"
	"github.com/kilianp07/fleetops/internal/testfleet"
)

const fleetYAML = `
tractors:
  - id: T1
    plate: AA-100
  - id: T2
    plate: AA-200
    state: MAINTENANCE
drivers:
  - id: D1
    name: Ana
    tractor: T1
  - id: D2
    name: Bruno
    active: false
materials:
  - {id: SAND, name: Sand}
clients:
  - {id: C1, name: Quarry Co}
origins:
  - {id: O1, name: North Pit}
destinations:
  - {id: X1, name: Plant}
templates:
  - name: sand run
    material_id: SAND
    client_id: C1
`

func TestLoadAndApplyYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fleet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fleetYAML), 0o600))
	doc, err := seed.Load(path)
	require.NoError(t, err)

	st := testfleet.NewStore(t)
	ctx := context.Background()
	sum, err := seed.Apply(ctx, st, doc, logger.NopLogger{})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Tractors)
	assert.Equal(t, 2, sum.Drivers)
	assert.Equal(t, 1, sum.Refs["material"])
	assert.Equal(t, 1, sum.Templates)

	ana, err := st.GetDriver(ctx, "D1")
	require.NoError(t, err)
	assert.True(t, ana.Active)
	assert.Equal(t, "T1", *ana.TractorID)
	bruno, err := st.GetDriver(ctx, "D2")
	require.NoError(t, err)
	assert.False(t, bruno.Active)
	t2, err := st.GetTractor(ctx, "T2")
	require.NoError(t, err)
	assert.Equal(t, model.TractorMaintenance, t2.State)

	// Applying twice keeps a single template.
	sum, err = seed.Apply(ctx, st, doc, logger.NopLogger{})
	require.NoError(t, err)
	assert.Zero(t, sum.Templates)
	tpls, err := st.ListTemplates(ctx, false)
	require.NoError(t, err)
	assert.Len(t, tpls, 1)
}

func TestDecodeJSON(t *testing.T) {
	doc, err := seed.Decode(strings.NewReader(`{"tractors":[{"id":"T9","plate":"ZZ-9"}]}`), "json")
	require.NoError(t, err)
	require.Len(t, doc.Tractors, 1)
	assert.Equal(t, "T9", doc.Tractors[0].ID)

	_, err = seed.Decode(strings.NewReader(`{"trucks":[]}`), "json")
	assert.Error(t, err)
	_, err = seed.Decode(strings.NewReader(``), "toml")
	assert.Error(t, err)
}

func TestValidateRejectsDoubleBinding(t *testing.T) {
	doc := seed.File{
		Tractors: []seed.Tractor{{ID: "T1"}},
		Drivers:  []seed.Driver{{ID: "D1", Tractor: "T1"}, {ID: "D2", Tractor: "T1"}},
	}
	assert.Error(t, doc.Validate())

	_, err := seed.Apply(context.Background(), testfleet.NewStore(t), doc, logger.NopLogger{})
	assert.Error(t, err)
}

func TestApplyRejectsUnknownTractor(t *testing.T) {
	doc := seed.File{Drivers: []seed.Driver{{ID: "D1", Name: "Ana", Tractor: "T404"}}}
	_, err := seed.Apply(context.Background(), testfleet.NewStore(t), doc, logger.NopLogger{})
	assert.Error(t, err)
}
