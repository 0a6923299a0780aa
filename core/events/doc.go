// Package events defines the lifecycle events emitted on the event bus after
// a state change commits.
//
// Available event types:
//   - PlanGenerated: a weekly plan generation finished
//   - LineChanged: a line was created, confirmed, cancelled, edited or deleted
//   - TripChanged: a trip was created or finalized
//   - TripEventRecorded: an event was attached to a trip
//   - ResourceChanged: a rest period, maintenance window or binding changed
package events
