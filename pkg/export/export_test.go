package export

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kilianp07/fleetops/core/deviation"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/internal/testfleet"
)

func sampleLines() []model.Line {
	t1 := "T1"
	return []model.Line{
		{ID: 1, Date: model.MustDate("2024-06-10"), DriverID: "D1", TractorID: &t1, MaterialID: "SAND",
			Origin: model.OriginPlan, Status: model.LinePending, CreatedBy: "ops"},
		{ID: 2, Date: model.MustDate("2024-06-11"), DriverID: "D3", MaterialID: "GRAVEL",
			Origin: model.OriginOffPlan, Status: model.LineCancelled, CreatedBy: "ops"},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, CSV, f)
	f, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, XLSX, f)
	_, err = ParseFormat("pdf")
	assert.Error(t, err)
	assert.Equal(t, "application/json", JSON.ContentType())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, CSV, PlanTable(sampleLines())))
	assert.Equal(t,
		"id,date,driver_id,tractor_id,material_id,origin,status,created_by\n"+
			"1,2024-06-10,D1,T1,SAND,PLAN,PENDING,ops\n"+
			"2,2024-06-11,D3,,GRAVEL,OFF_PLAN,CANCELLED,ops\n",
		buf.String())
}

func TestWriteJSON(t *testing.T) {
	sand := "SAND"
	rows := []deviation.Row{{Date: model.MustDate("2024-06-10"), DriverID: "D1", MaterialPlanned: "SAND",
		MaterialExecuted: &sand, Result: deviation.OK, ExecutedTrips: 1}}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, JSON, DeviationTable(rows)))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "OK", got[0]["result"])
	assert.Equal(t, "2024-06-10", got[0]["date"])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, XLSX, PlanTable(sampleLines())))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Plan")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "material_id", rows[0][4])
	assert.Equal(t, "2024-06-10", rows[1][1])
	assert.Equal(t, "T1", rows[1][3])
}

func TestBuild(t *testing.T) {
	st := testfleet.Seeded(t)
	ctx := context.Background()
	mon := model.MustDate("2024-06-10")
	testfleet.Line(t, st, "2024-06-10", testfleet.Ana, testfleet.Sand, model.OriginPlan, model.LinePending)
	testfleet.Line(t, st, "2024-06-11", testfleet.Bruno, testfleet.Gravel, model.OriginOffPlan, model.LinePending)
	testfleet.Line(t, st, "2024-06-17", testfleet.Ana, testfleet.Sand, model.OriginPlan, model.LinePending)

	tbl, err := Build(ctx, st, "plan", mon.AddDays(3))
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "Plan", tbl.Name)

	tbl, err = Build(ctx, st, "deviation", mon)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, string(deviation.NotExecuted), tbl.Rows[0][6])

	_, err = Build(ctx, st, "fuel", mon)
	assert.Error(t, err)
}
