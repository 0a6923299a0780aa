package planning_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetops/core/apperr"
	"github.com/kilianp07/fleetops/core/availability"
	"github.com/kilianp07/fleetops/core/events"
	"github.com/kilianp07/fleetops/core/lines"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/core/planning"
	"github.com/kilianp07/fleetops/core/store"
	"github.com/kilianp07/fleetops/infra/logger"
	"github.com/kilianp07/fleetops/internal/eventbus"
	"github.com/kilianp07/fleetops/internal/testfleet"
)

func request(drivers []string, days ...time.Weekday) planning.Request {
	return planning.Request{
		WeekStart:  model.MustDate("2024-06-10"),
		DriverIDs:  drivers,
		Weekdays:   days,
		MaterialID: testfleet.Sand,
		Creator:    testfleet.Actor,
	}
}

func TestGenerateSkipsRestingDriver(t *testing.T) {
	st := testfleet.Seeded(t)
	ctx := context.Background()
	av := availability.NewService(st, nil, logger.NopLogger{})
	_, err := av.StartRest(ctx, availability.RestRequest{
		DriverID: testfleet.Ana, Start: model.MustDate("2024-06-10"), End: model.MustDate("2024-06-12"), Actor: "hr",
	})
	require.NoError(t, err)

	gen := planning.NewGenerator(st, nil, logger.NopLogger{})
	res, err := gen.Generate(ctx, request([]string{testfleet.Ana}, time.Monday, time.Wednesday))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.SkipReasons, 2)
	assert.Equal(t, planning.Skip{Date: model.MustDate("2024-06-10"), DriverID: testfleet.Ana, Reason: planning.SkipRest}, res.SkipReasons[0])
	assert.Equal(t, "2024-06-12", res.SkipReasons[1].Date.String())
	assert.Equal(t, planning.SkipRest, res.SkipReasons[1].Reason)
}

func TestGenerateIsIdempotent(t *testing.T) {
	st := testfleet.Seeded(t)
	ctx := context.Background()
	bus := eventbus.NewTyped[events.Event]()
	sub := bus.Subscribe()
	gen := planning.NewGenerator(st, bus, logger.NopLogger{})
	req := request([]string{testfleet.Ana, testfleet.Bruno}, time.Monday, time.Tuesday, time.Friday)

	first, err := gen.Generate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 6, first.Created)
	assert.Equal(t, map[string]int{testfleet.Sand: 6}, first.ByMaterial)
	assert.Equal(t, 6, (<-sub).(events.PlanGenerated).Created)

	second, err := gen.Generate(ctx, req)
	require.NoError(t, err)
	assert.Zero(t, second.Created)
	assert.Equal(t, 6, second.Skipped)
	for _, s := range second.SkipReasons {
		assert.Equal(t, planning.SkipExists, s.Reason)
	}

	// overlapping input only fills the gaps
	third, err := gen.Generate(ctx, request([]string{testfleet.Ana, testfleet.Carla}, time.Monday))
	require.NoError(t, err)
	assert.Equal(t, 1, third.Created)
	assert.Equal(t, 1, third.Skipped)

	n, err := st.CountLines(ctx, store.LineFilter{Origin: model.OriginPlan})
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestGenerateNormalizesWeekAndCopiesTractor(t *testing.T) {
	st := testfleet.Seeded(t)
	gen := planning.NewGenerator(st, nil, logger.NopLogger{})
	req := request([]string{testfleet.Ana}, time.Sunday, time.Monday, time.Monday)
	req.WeekStart = model.MustDate("2024-06-13")

	res, err := gen.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-10", res.WeekStart.String())
	require.Len(t, res.Lines, 2)
	assert.Equal(t, "2024-06-10", res.Lines[0].Date.String())
	assert.Equal(t, "2024-06-16", res.Lines[1].Date.String())
	require.NotNil(t, res.Lines[0].TractorID)
	assert.Equal(t, testfleet.Truck1, *res.Lines[0].TractorID)
	assert.Equal(t, model.OriginPlan, res.Lines[0].Origin)
	assert.Equal(t, model.LinePending, res.Lines[0].Status)
}

func TestGenerateReportsUnknownAndInactiveDrivers(t *testing.T) {
	st := testfleet.Seeded(t)
	ctx := context.Background()
	require.NoError(t, st.UpsertDriver(ctx, model.Driver{ID: "D9", Name: "Retired", Active: false}))
	gen := planning.NewGenerator(st, nil, logger.NopLogger{})

	res, err := gen.Generate(ctx, request([]string{"ghost", "D9"}, time.Monday))
	require.NoError(t, err)
	assert.Zero(t, res.Created)
	require.Len(t, res.SkipReasons, 2)
	assert.Equal(t, planning.SkipUnknownDriver, res.SkipReasons[0].Reason)
	assert.Equal(t, planning.SkipInactiveDriver, res.SkipReasons[1].Reason)
}

func TestGenerateFailsFast(t *testing.T) {
	st := testfleet.Seeded(t)
	ctx := context.Background()
	gen := planning.NewGenerator(st, nil, logger.NopLogger{})

	bad := request([]string{testfleet.Ana}, time.Monday)
	bad.MaterialID = "ROCK"
	_, err := gen.Generate(ctx, bad)
	assert.True(t, apperr.IsNotFound(err))

	_, err = gen.Generate(ctx, request(nil, time.Monday))
	assert.True(t, apperr.IsValidation(err))

	res, err := gen.Generate(ctx, request([]string{testfleet.Ana}, time.Monday))
	require.NoError(t, err)
	ls := lines.NewService(st, nil, logger.NopLogger{})
	_, err = ls.Confirm(ctx, res.Lines[0].ID, testfleet.Actor)
	require.NoError(t, err)

	_, err = gen.Generate(ctx, request([]string{testfleet.Bruno}, time.Tuesday))
	assert.True(t, apperr.IsConflict(err))
	assert.Equal(t, apperr.CodeWeekLocked, apperr.CodeOf(err))
}

func TestGenerateRejectsOutOfRangeWeekday(t *testing.T) {
	st := testfleet.Seeded(t)
	ctx := context.Background()
	gen := planning.NewGenerator(st, nil, logger.NopLogger{})

	for _, wd := range []time.Weekday{time.Weekday(-7), time.Weekday(7)} {
		_, err := gen.Generate(ctx, request([]string{testfleet.Ana}, time.Monday, wd))
		assert.True(t, apperr.IsValidation(err), "weekday %d", int(wd))
		assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(err))
	}
	n, err := st.CountLines(ctx, store.LineFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWeekCounters(t *testing.T) {
	st := testfleet.Seeded(t)
	ctx := context.Background()
	gen := planning.NewGenerator(st, nil, logger.NopLogger{})
	_, err := gen.Generate(ctx, request([]string{testfleet.Ana, testfleet.Bruno}, time.Monday, time.Thursday))
	require.NoError(t, err)
	testfleet.Line(t, st, "2024-06-11", testfleet.Carla, testfleet.Gravel, model.OriginOffPlan, model.LinePending)

	week, err := gen.ListWeek(ctx, model.MustDate("2024-06-15"))
	require.NoError(t, err)
	assert.Len(t, week, 4)

	c, err := gen.Counters(ctx, model.MustDate("2024-06-15"))
	require.NoError(t, err)
	assert.Equal(t, 4, c.Total)
	assert.Equal(t, 2, c.DriversPlanned)
	assert.Equal(t, 4, c.ByStatus[model.LinePending])
	assert.Equal(t, 2, c.ByDay["2024-06-13"])
}
