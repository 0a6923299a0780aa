package availability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetops/core/apperr"
	"github.com/kilianp07/fleetops/core/availability"
	"github.com/kilianp07/fleetops/core/events"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/infra/logger"
	"github.com/kilianp07/fleetops/internal/eventbus"
	"github.com/kilianp07/fleetops/internal/testfleet"
)

var d = model.MustDate

func newService(t *testing.T) (*availability.Service, *eventbus.TypedBus[events.Event], context.Context) {
	t.Helper()
	st := testfleet.Seeded(t)
	bus := eventbus.NewTyped[events.Event]()
	t.Cleanup(bus.Close)
	return availability.NewService(st, bus, logger.NopLogger{}), bus, context.Background()
}

func TestDriverUnavailableIffRestContainsDate(t *testing.T) {
	svc, _, ctx := newService(t)
	_, err := svc.StartRest(ctx, availability.RestRequest{
		DriverID: testfleet.Carla, Start: d("2024-06-10"), End: d("2024-06-12"), Actor: testfleet.Actor,
	})
	require.NoError(t, err)

	ix := svc.Index()
	for day, want := range map[string]bool{
		"2024-06-09": true, "2024-06-10": false, "2024-06-11": false, "2024-06-12": false, "2024-06-13": true,
	} {
		ok, err := ix.IsDriverAvailable(ctx, testfleet.Carla, d(day))
		require.NoError(t, err)
		assert.Equal(t, want, ok, day)
	}
	r, err := ix.DriverUnavailability(ctx, testfleet.Carla, d("2024-06-11"))
	require.NoError(t, err)
	assert.Equal(t, availability.ReasonRest, r)

	ok, err := ix.IsDriverAvailable(ctx, testfleet.Ana, d("2024-06-11"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStartRestReleasesBoundTractor(t *testing.T) {
	st := testfleet.Seeded(t)
	ctx := context.Background()
	require.NoError(t, st.SetTractorState(ctx, testfleet.Truck1, model.TractorMaintenance))
	bus := eventbus.NewTyped[events.Event]()
	sub := bus.Subscribe()
	svc := availability.NewService(st, bus, logger.NopLogger{})

	ev, err := svc.StartRest(ctx, availability.RestRequest{
		DriverID: testfleet.Ana, Start: d("2024-06-10"), End: d("2024-06-12"), Note: "annual", Actor: testfleet.Actor,
	})
	require.NoError(t, err)
	assert.Positive(t, ev.ID)

	drv, err := st.GetDriver(ctx, testfleet.Ana)
	require.NoError(t, err)
	assert.Nil(t, drv.TractorID)
	tr, err := st.GetTractor(ctx, testfleet.Truck1)
	require.NoError(t, err)
	assert.Equal(t, model.TractorOperational, tr.State)

	got := (<-sub).(events.ResourceChanged)
	assert.Equal(t, events.RestStarted, got.Action)
	assert.Equal(t, testfleet.Truck1, got.Released)
}

func TestStartRestValidation(t *testing.T) {
	svc, _, ctx := newService(t)
	_, err := svc.StartRest(ctx, availability.RestRequest{DriverID: testfleet.Ana, Start: d("2024-06-12"), End: d("2024-06-10"), Actor: "x"})
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, apperr.CodeInvalidInterval, apperr.CodeOf(err))

	_, err = svc.StartRest(ctx, availability.RestRequest{DriverID: "ghost", Start: d("2024-06-10"), End: d("2024-06-10"), Actor: "x"})
	assert.True(t, apperr.IsNotFound(err))

	_, err = svc.StartRest(ctx, availability.RestRequest{DriverID: testfleet.Ana, Start: d("2024-06-10"), End: d("2024-06-10")})
	assert.True(t, apperr.IsValidation(err))
}

func TestFinishRestMovesEnd(t *testing.T) {
	svc, _, ctx := newService(t)
	ev, err := svc.StartRest(ctx, availability.RestRequest{
		DriverID: testfleet.Carla, Start: d("2024-06-10"), End: d("2024-06-20"), Actor: "x",
	})
	require.NoError(t, err)
	_, err = svc.FinishRest(ctx, ev.ID, d("2024-06-01"), "x")
	assert.Equal(t, apperr.CodeInvalidInterval, apperr.CodeOf(err))

	closed, err := svc.FinishRest(ctx, ev.ID, d("2024-06-11"), "x")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-11", closed.End.String())
	ok, err := svc.Index().IsDriverAvailable(ctx, testfleet.Carla, d("2024-06-12"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMaintenanceLifecycle(t *testing.T) {
	st := testfleet.Seeded(t)
	ctx := context.Background()
	svc := availability.NewService(st, nil, logger.NopLogger{})

	ev, err := svc.StartMaintenance(ctx, availability.MaintenanceRequest{TractorID: testfleet.Truck1, Start: d("2024-06-10"), Actor: "x"})
	require.NoError(t, err)
	assert.True(t, ev.Open())

	drv, err := st.GetDriver(ctx, testfleet.Ana)
	require.NoError(t, err)
	assert.Nil(t, drv.TractorID, "drivers are unbound")
	tr, err := st.GetTractor(ctx, testfleet.Truck1)
	require.NoError(t, err)
	assert.Equal(t, model.TractorMaintenance, tr.State)

	ok, err := svc.Index().IsTractorAvailable(ctx, testfleet.Truck1, d("2030-01-01"))
	require.NoError(t, err)
	assert.False(t, ok, "open windows never end")

	_, err = svc.StartMaintenance(ctx, availability.MaintenanceRequest{TractorID: testfleet.Truck1, Start: d("2024-06-11"), Actor: "x"})
	assert.True(t, apperr.IsConflict(err))

	_, err = svc.FinishMaintenance(ctx, ev.ID, d("2024-06-14"), "x")
	require.NoError(t, err)
	tr, err = st.GetTractor(ctx, testfleet.Truck1)
	require.NoError(t, err)
	assert.Equal(t, model.TractorOperational, tr.State)
	ok, err = svc.Index().IsTractorAvailable(ctx, testfleet.Truck1, d("2024-06-15"))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.FinishMaintenance(ctx, ev.ID, d("2024-06-15"), "x")
	assert.Equal(t, apperr.CodeAlreadyClosed, apperr.CodeOf(err))

	// a rest event cannot be closed as maintenance
	rest, err := svc.StartRest(ctx, availability.RestRequest{DriverID: testfleet.Carla, Start: d("2024-06-10"), End: d("2024-06-10"), Actor: "x"})
	require.NoError(t, err)
	_, err = svc.FinishMaintenance(ctx, rest.ID, d("2024-06-10"), "x")
	assert.True(t, apperr.IsValidation(err))
}

func TestBindTractor(t *testing.T) {
	st := testfleet.Seeded(t)
	ctx := context.Background()
	svc := availability.NewService(st, nil, logger.NopLogger{})
	t1, t3 := testfleet.Truck1, testfleet.Truck3

	_, err := svc.BindTractor(ctx, testfleet.Carla, &t1, "x")
	assert.Equal(t, apperr.CodeTractorBound, apperr.CodeOf(err))

	drv, err := svc.BindTractor(ctx, testfleet.Carla, &t3, "x")
	require.NoError(t, err)
	assert.Equal(t, t3, *drv.TractorID)

	drv, err = svc.BindTractor(ctx, testfleet.Carla, nil, "x")
	require.NoError(t, err)
	assert.Nil(t, drv.TractorID)

	require.NoError(t, st.SetTractorState(ctx, t3, model.TractorMaintenance))
	_, err = svc.BindTractor(ctx, testfleet.Carla, &t3, "x")
	assert.Equal(t, apperr.CodeTractorNotOperational, apperr.CodeOf(err))

	missing := "T9"
	_, err = svc.BindTractor(ctx, testfleet.Carla, &missing, "x")
	assert.True(t, apperr.IsNotFound(err))
}

func TestRestDaysPerMonth(t *testing.T) {
	svc, _, ctx := newService(t)
	for _, r := range []availability.RestRequest{
		{DriverID: testfleet.Carla, Start: d("2024-05-30"), End: d("2024-06-02"), Actor: "x"},
		{DriverID: testfleet.Carla, Start: d("2024-06-01"), End: d("2024-06-03"), Actor: "x"},
		{DriverID: testfleet.Bruno, Start: d("2024-06-30"), End: d("2024-07-04"), Actor: "x"},
	} {
		_, err := svc.StartRest(ctx, r)
		require.NoError(t, err)
	}
	counts, err := svc.RestDays(ctx, 2024, time.June)
	require.NoError(t, err)
	byDriver := map[string]int{}
	for _, c := range counts {
		byDriver[c.DriverID] = c.Days
	}
	assert.Equal(t, 3, byDriver[testfleet.Carla], "June 1..3, overlap counted once")
	assert.Equal(t, 1, byDriver[testfleet.Bruno])
	assert.Equal(t, 0, byDriver[testfleet.Ana])
	assert.Equal(t, testfleet.Carla, counts[0].DriverID)
}

func TestDailyPoolAndLooseTractors(t *testing.T) {
	svc, _, ctx := newService(t)
	_, err := svc.StartRest(ctx, availability.RestRequest{DriverID: testfleet.Ana, Start: d("2024-06-10"), End: d("2024-06-10"), Actor: "x"})
	require.NoError(t, err)
	_, err = svc.StartMaintenance(ctx, availability.MaintenanceRequest{TractorID: testfleet.Truck2, Start: d("2024-06-01"), Actor: "x"})
	require.NoError(t, err)

	pool, err := svc.DailyPool(ctx, d("2024-06-10"))
	require.NoError(t, err)
	assert.Equal(t, 3, pool.DriversTotal)
	assert.Equal(t, 2, pool.DriversAvailable)
	assert.Equal(t, 3, pool.TractorsTotal)
	assert.Equal(t, 2, pool.TractorsAvailable)
	assert.Equal(t, 2, pool.Capacity)
	assert.Len(t, pool.Unavailable, 2)

	// Ana's rest released T1, T2 is in maintenance, T3 was never bound.
	loose, err := svc.LooseTractors(ctx)
	require.NoError(t, err)
	ids := []string{}
	for _, tr := range loose {
		ids = append(ids, tr.ID)
	}
	assert.ElementsMatch(t, []string{testfleet.Truck1, testfleet.Truck3}, ids)
}
