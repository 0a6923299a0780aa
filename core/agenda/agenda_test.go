package agenda_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetops/core/agenda"
	"github.com/kilianp07/fleetops/core/apperr"
	"github.com/kilianp07/fleetops/core/model"
	"github.com/kilianp07/fleetops/internal/testfleet"
)

func TestItems(t *testing.T) {
	st := testfleet.Seeded(t)
	ctx := context.Background()

	done := testfleet.Line(t, st, "2024-06-10", testfleet.Ana, testfleet.Sand, model.OriginPlan, model.LineTripGenerated)
	trip := testfleet.Trip(t, st, &done.ID, "2024-06-10", testfleet.Ana, testfleet.Sand, model.TripConfirmed)
	pending := testfleet.Line(t, st, "2024-06-11", testfleet.Bruno, testfleet.Gravel, model.OriginPlan, model.LinePending)
	end := model.MustDate("2024-06-11")
	rest, err := st.InsertResourceEvent(ctx, model.ResourceEvent{
		Kind: model.EventRest, ResourceKind: model.ResourceDriver, ResourceID: testfleet.Carla,
		Start: model.MustDate("2024-06-08"), End: &end, CreatedBy: testfleet.Actor,
	})
	require.NoError(t, err)

	items, err := agenda.Items(ctx, st, model.MustDate("2024-06-10"), model.MustDate("2024-06-12"))
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, agenda.KindRest, items[0].Kind)
	assert.Equal(t, rest, items[0].ID)
	assert.Equal(t, "2024-06-10", items[0].Date.String())
	assert.Equal(t, agenda.KindTrip, items[1].Kind)
	assert.Equal(t, trip.ID, items[1].ID)
	assert.Equal(t, agenda.KindRest, items[2].Kind)
	assert.Equal(t, "2024-06-11", items[2].Date.String())
	assert.Equal(t, agenda.KindLine, items[3].Kind)
	assert.Equal(t, pending.ID, items[3].ID)
	assert.Equal(t, string(model.LinePending), items[3].Status)
}

func TestItemsRange(t *testing.T) {
	st := testfleet.Seeded(t)
	ctx := context.Background()

	items, err := agenda.Items(ctx, st, model.MustDate("2024-06-10"), model.MustDate("2024-06-10"))
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = agenda.Items(ctx, st, model.MustDate("2024-06-10"), model.MustDate("2024-06-01"))
	assert.True(t, apperr.IsValidation(err))
	_, err = agenda.Items(ctx, st, model.MustDate("2024-01-01"), model.MustDate("2024-06-01"))
	assert.True(t, apperr.IsValidation(err))
}
