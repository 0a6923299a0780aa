package events

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/fleetops/core/model"
)

func TestTopics(t *testing.T) {
	assert.Equal(t, "lines/4/confirmed", LineChanged{Action: LineConfirmed, Line: model.Line{ID: 4}}.Topic())
	assert.Equal(t, "trips/9/finalized", TripChanged{Action: TripFinalized, Trip: model.Trip{ID: 9}}.Topic())
	assert.Equal(t, "trips/9/events/LOAD_DELAY",
		TripEventRecorded{Event: model.TripEvent{TripID: 9, Kind: model.LoadDelay}}.Topic())
	assert.Equal(t, "resources/DRIVER/D1/rest_started",
		ResourceChanged{Action: RestStarted, Kind: model.ResourceDriver, ResourceID: "D1"}.Topic())
	assert.Equal(t, "plan/generated", PlanGenerated{}.Topic())
}

func TestOrNop(t *testing.T) {
	OrNop(nil).Publish(PlanGenerated{})
}
