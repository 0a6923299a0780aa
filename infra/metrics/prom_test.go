package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/fleetops/core/metrics"
	"github.com/kilianp07/fleetops/core/model"
)

func TestPromSink_Records(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordLine(coremetrics.LineEvent{Action: "confirmed", Origin: model.OriginPlan}))
	require.NoError(t, sink.RecordLine(coremetrics.LineEvent{Action: "confirmed", Origin: model.OriginPlan}))
	require.NoError(t, sink.RecordPlan(coremetrics.PlanEvent{Created: 4, Skipped: 2, Reasons: map[string]int{"REST": 2}}))
	require.NoError(t, sink.RecordTrip(coremetrics.TripEvent{Action: "created", HasTractor: true}))
	require.NoError(t, sink.RecordDelay(coremetrics.DelayEvent{Kind: model.LoadDelay, Minutes: 12}))
	require.NoError(t, sink.RecordResource(coremetrics.ResourceEvent{Action: "rest_started", Kind: model.ResourceDriver}))

	expected := `
# HELP fleetops_line_transitions_total Line lifecycle transitions
# TYPE fleetops_line_transitions_total counter
fleetops_line_transitions_total{action="confirmed",origin="PLAN"} 2
`
	assert.NoError(t, testutil.CollectAndCompare(sink.lines, strings.NewReader(expected)))
	assert.Equal(t, 4.0, testutil.ToFloat64(sink.planned))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.skipped.WithLabelValues("REST")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.trips.WithLabelValues("created", "true")))
	assert.Equal(t, 1, testutil.CollectAndCount(sink.delays))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.resources.WithLabelValues("rest_started", "DRIVER")))
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, second.RecordTrip(coremetrics.TripEvent{Action: "finalized"}))
	assert.Equal(t, 1.0, testutil.ToFloat64(first.trips.WithLabelValues("finalized", "false")))
}
