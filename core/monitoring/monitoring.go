// Package monitoring reports unexpected failures to an error tracker.
// Services call the package-level helpers; the tracker is installed once at
// startup with Init.
package monitoring

import (
	"sync"
	"time"

	"github.com/kilianp07/fleetops/core/apperr"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the global monitor implementation.
func Init(m Monitor) {
	if m == nil {
		return
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

func get() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	get().CaptureException(err, tags)
}

// CaptureUnexpected records err only when it falls outside the validation,
// not-found and conflict kinds, which are expected outcomes of user input.
// It reports whether the error was sent.
func CaptureUnexpected(err error, tags map[string]string) bool {
	if err == nil || apperr.KindOf(err) != apperr.KindInternal {
		return false
	}
	get().CaptureException(err, tags)
	return true
}

// Recover captures panics in goroutines.
func Recover() {
	get().Recover()
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	get().Flush(d)
}
