package monitoring_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/fleetops/core/apperr"
	"github.com/kilianp07/fleetops/core/monitoring"
)

type recordMonitor struct {
	errs []error
	tags map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = tags
}
func (r *recordMonitor) Recover()            {}
func (r *recordMonitor) Flush(time.Duration) {}

func TestCaptureUnexpected(t *testing.T) {
	mon := &recordMonitor{}
	monitoring.Init(mon)
	defer monitoring.Init(monitoring.NopMonitor{})

	assert.False(t, monitoring.CaptureUnexpected(nil, nil))
	assert.False(t, monitoring.CaptureUnexpected(apperr.Validation("op", apperr.CodeInvalidInput, "bad"), nil))
	assert.False(t, monitoring.CaptureUnexpected(apperr.NotFound("op", "line", 1), nil))
	assert.False(t, monitoring.CaptureUnexpected(apperr.Conflict("op", apperr.CodeWeekLocked, "locked"), nil))
	assert.Empty(t, mon.errs)

	boom := errors.New("disk full")
	assert.True(t, monitoring.CaptureUnexpected(boom, map[string]string{"route": "/lines"}))
	assert.Equal(t, []error{boom}, mon.errs)
	assert.Equal(t, "/lines", mon.tags["route"])
}

func TestInitIgnoresNil(t *testing.T) {
	mon := &recordMonitor{}
	monitoring.Init(mon)
	defer monitoring.Init(monitoring.NopMonitor{})
	monitoring.Init(nil)
	monitoring.CaptureException(errors.New("x"), nil)
	assert.Len(t, mon.errs, 1)
}
