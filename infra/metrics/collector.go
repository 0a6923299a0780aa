package metrics

import (
	"context"

	"github.com/kilianp07/fleetops/core/events"
	coremetrics "github.com/kilianp07/fleetops/core/metrics"
	"github.com/kilianp07/fleetops/infra/logger"
	"github.com/kilianp07/fleetops/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// lifecycle events. It stops when the context is canceled or the bus closes.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[events.Event], sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	log := logger.New("metrics-collector")
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := Record(sink, ev); err != nil {
					log.Warnf("record %s: %v", ev.Topic(), err)
				}
			}
		}
	}()
}

// Record converts one lifecycle event and hands it to the matching recorder
// of sink, if it has one.
func Record(sink coremetrics.MetricsSink, ev events.Event) error {
	switch e := ev.(type) {
	case events.LineChanged:
		return sink.RecordLine(coremetrics.LineEvent{
			Action: e.Action, Origin: e.Line.Origin, Status: e.Line.Status, MaterialID: e.Line.MaterialID, Time: e.At,
		})
	case events.PlanGenerated:
		if r, ok := sink.(coremetrics.PlanRecorder); ok {
			return r.RecordPlan(coremetrics.PlanEvent{
				WeekStart: e.WeekStart, Created: e.Created, Skipped: e.Skipped, Reasons: e.Reasons, Time: e.At,
			})
		}
	case events.LinesFrozen:
		if r, ok := sink.(coremetrics.PlanRecorder); ok {
			return r.RecordPlan(coremetrics.PlanEvent{WeekStart: e.WeekStart, Frozen: e.Confirmed, Time: e.At})
		}
	case events.TripChanged:
		if r, ok := sink.(coremetrics.TripRecorder); ok {
			return r.RecordTrip(coremetrics.TripEvent{
				Action: e.Action, MaterialID: e.Trip.MaterialID, ClientID: e.Trip.ClientID,
				HasTractor: e.Trip.TractorID != nil, Time: e.At,
			})
		}
	case events.TripEventRecorded:
		if r, ok := sink.(coremetrics.DelayRecorder); ok {
			return r.RecordDelay(coremetrics.DelayEvent{
				TripID: e.Event.TripID, Kind: e.Event.Kind, Minutes: e.DurationMinutes, Time: e.Event.CreatedAt,
			})
		}
	case events.ResourceChanged:
		if r, ok := sink.(coremetrics.ResourceRecorder); ok {
			return r.RecordResource(coremetrics.ResourceEvent{
				Action: e.Action, Kind: e.Kind, ResourceID: e.ResourceID, Time: e.At,
			})
		}
	}
	return nil
}
