package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekStartIsMonday(t *testing.T) {
	cases := map[string]string{
		"2024-06-10": "2024-06-10",
		"2024-06-12": "2024-06-10",
		"2024-06-16": "2024-06-10",
		"2024-06-17": "2024-06-17",
	}
	for in, want := range cases {
		assert.Equal(t, want, MustDate(in).WeekStart().String(), in)
	}
	start, end := MustDate("2024-06-13").Week()
	assert.Equal(t, "2024-06-10", start.String())
	assert.Equal(t, "2024-06-16", end.String())
}

func TestWeekdayOffset(t *testing.T) {
	assert.Equal(t, 0, WeekdayOffset(time.Monday))
	assert.Equal(t, 2, WeekdayOffset(time.Wednesday))
	assert.Equal(t, 6, WeekdayOffset(time.Sunday))
}

func TestDateJSONAndScan(t *testing.T) {
	d := MustDate("2024-06-05")
	b, err := json.Marshal(struct {
		D Date `json:"d"`
	}{d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2024-06-05"}`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-06-05"`), &back))
	assert.True(t, back.Equal(d))

	var scanned Date
	require.NoError(t, scanned.Scan([]byte("2024-06-05")))
	assert.True(t, scanned.Equal(d))
	require.NoError(t, scanned.Scan(time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)))
	assert.True(t, scanned.Equal(d))
	assert.Error(t, scanned.Scan(42))

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-06-05", v)
}

func TestResourceEventContains(t *testing.T) {
	end := MustDate("2024-06-12")
	ev := ResourceEvent{Start: MustDate("2024-06-10"), End: &end}
	assert.False(t, ev.Contains(MustDate("2024-06-09")))
	assert.True(t, ev.Contains(MustDate("2024-06-10")))
	assert.True(t, ev.Contains(MustDate("2024-06-12")))
	assert.False(t, ev.Contains(MustDate("2024-06-13")))

	open := ResourceEvent{Start: MustDate("2024-06-10")}
	assert.True(t, open.Contains(MustDate("2030-01-01")))
	assert.Equal(t, 3, open.Days(MustDate("2024-06-01"), MustDate("2024-06-12")))
	assert.Equal(t, 2, ev.Days(MustDate("2024-06-11"), MustDate("2024-06-30")))
}

func TestTripEventDuration(t *testing.T) {
	start := time.Date(2024, 6, 5, 8, 0, 0, 0, time.UTC)
	end := start.Add(95*time.Minute + 30*time.Second)
	assert.Equal(t, 95, TripEvent{Start: start, End: &end}.DurationMinutes())
	assert.Equal(t, 0, TripEvent{Start: start}.DurationMinutes())
}

func TestNormalizeEventKind(t *testing.T) {
	assert.Equal(t, LoadDelay, NormalizeEventKind(" load  delay "))
	assert.True(t, NormalizeEventKind("driver_delay").IsDelay())
	assert.False(t, NormalizeEventKind("fuel stop").IsDelay())
}

func TestTimestampRoundTrip(t *testing.T) {
	ts := time.Date(2024, 6, 5, 8, 30, 15, 999, time.FixedZone("X", 3600))
	s := FormatTimestamp(ts)
	assert.Equal(t, "2024-06-05 07:30:15", s)
	back, err := ParseTimestamp(s)
	require.NoError(t, err)
	assert.True(t, back.Equal(ts.Truncate(time.Second)))
}
