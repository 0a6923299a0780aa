package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/fleetops/core/metrics"
	"github.com/kilianp07/fleetops/core/model"
)

type bodyRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (b *bodyRecorder) server(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.bodies = append(b.bodies, strings.TrimSpace(string(data)))
		b.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func lineProtocol(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSink_RecordLine(t *testing.T) {
	rec := &bodyRecorder{}
	sink := NewInfluxSink(rec.server(t).URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()

	require.NoError(t, sink.RecordLine(coremetrics.LineEvent{
		Action: "cancelled", Origin: model.OriginOffPlan, Status: model.LineCancelled, MaterialID: "SAND", Time: now,
	}))
	p := write.NewPointWithMeasurement("line_transition").
		AddTag("action", "cancelled").
		AddTag("origin", "OFF_PLAN").
		AddTag("material_id", "SAND").
		AddField("status", "CANCELLED").
		SetTime(now)
	assert.Equal(t, []string{lineProtocol(p)}, rec.bodies)
}

func TestInfluxSink_RecordDelay(t *testing.T) {
	rec := &bodyRecorder{}
	sink := NewInfluxSink(rec.server(t).URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()

	require.NoError(t, sink.RecordDelay(coremetrics.DelayEvent{TripID: 7, Kind: model.UnloadDelay, Minutes: 25, Time: now}))
	p := write.NewPointWithMeasurement("trip_event").
		AddTag("kind", "UNLOAD_DELAY").
		AddTag("trip_id", "7").
		AddField("minutes", 25).
		SetTime(now)
	assert.Equal(t, []string{lineProtocol(p)}, rec.bodies)
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	assert.IsType(t, coremetrics.NopSink{}, sink)
	assert.True(t, called, "health endpoint not called")
}
