package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordSink struct {
	count int
	err   error
}

func (r *recordSink) RecordLine(LineEvent) error {
	r.count++
	return r.err
}

func (r *recordSink) RecordTrip(TripEvent) error {
	r.count++
	return r.err
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2, NopSink{})
	require.NoError(t, m.RecordLine(LineEvent{Action: "confirmed"}))
	require.NoError(t, m.RecordTrip(TripEvent{Action: "created"}))
	// Sinks without the optional recorder are skipped.
	require.NoError(t, m.RecordDelay(DelayEvent{Minutes: 5}))
	assert.Equal(t, 2, s1.count)
	assert.Equal(t, 2, s2.count)
}

func TestMultiSinkStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	s1 := &recordSink{err: boom}
	s2 := &recordSink{}
	m := NewMultiSink(s1, s2)
	assert.ErrorIs(t, m.RecordLine(LineEvent{}), boom)
	assert.Equal(t, 0, s2.count)
}
