package sink

import "errors"

// Init-time errors. All of them make the selector try the next
// candidate, none is fatal to the process.
var (
	ErrBackendUnavailable = errors.New("sink: backend unavailable")
	ErrPortInUse          = errors.New("sink: port in use")
	ErrInvalidConfig      = errors.New("sink: invalid config")
)

// Send-time errors. Recorded in per-sink statistics and otherwise
// swallowed by the bus, the render loop continues regardless.
var (
	ErrBackendRejected   = errors.New("sink: backend rejected frame")
	ErrDisconnected      = errors.New("sink: disconnected")
	ErrFormatUnsupported = errors.New("sink: format unsupported")
)
