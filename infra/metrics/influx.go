package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/fleetops/core/metrics"
	"github.com/kilianp07/fleetops/infra/logger"
)

// InfluxSink writes fleet activity to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the client.
func (s *InfluxSink) Close() {
	s.client.Close()
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordLine writes a line transition.
func (s *InfluxSink) RecordLine(ev coremetrics.LineEvent) error {
	p := write.NewPointWithMeasurement("line_transition").
		AddTag("action", ev.Action).
		AddTag("origin", string(ev.Origin)).
		AddTag("material_id", ev.MaterialID).
		AddField("status", string(ev.Status)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordPlan writes a generator run or week freeze.
func (s *InfluxSink) RecordPlan(ev coremetrics.PlanEvent) error {
	p := write.NewPointWithMeasurement("plan").
		AddTag("week_start", ev.WeekStart.String()).
		AddField("created", ev.Created).
		AddField("skipped", ev.Skipped).
		AddField("frozen", ev.Frozen)
	for reason, n := range ev.Reasons {
		p = p.AddField("skipped_"+strings.ToLower(reason), n)
	}
	return s.write(p.SetTime(ev.Time))
}

// RecordTrip writes a trip transition.
func (s *InfluxSink) RecordTrip(ev coremetrics.TripEvent) error {
	p := write.NewPointWithMeasurement("trip").
		AddTag("action", ev.Action).
		AddTag("material_id", ev.MaterialID).
		AddTag("client_id", ev.ClientID).
		AddField("has_tractor", ev.HasTractor).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordDelay writes a trip event duration.
func (s *InfluxSink) RecordDelay(ev coremetrics.DelayEvent) error {
	p := write.NewPointWithMeasurement("trip_event").
		AddTag("kind", string(ev.Kind)).
		AddTag("trip_id", strconv.FormatInt(ev.TripID, 10)).
		AddField("minutes", ev.Minutes).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordResource writes an availability change.
func (s *InfluxSink) RecordResource(ev coremetrics.ResourceEvent) error {
	p := write.NewPointWithMeasurement("resource_change").
		AddTag("action", ev.Action).
		AddTag("resource_kind", string(ev.Kind)).
		AddTag("resource_id", ev.ResourceID).
		AddField("count", 1).
		SetTime(ev.Time)
	return s.write(p)
}
