package mqtt

import "errors"

// ErrNotConnected is returned when publishing on a client that has lost its
// broker connection and exhausted its retries.
var ErrNotConnected = errors.New("mqtt: not connected")
