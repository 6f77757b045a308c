package sim

import "errors"

// ErrConfig marks every error caused by the simulation configuration.
// Callers classify with errors.Is(err, ErrConfig).
var ErrConfig = errors.New("configuration error")

var (
	ErrNilModule               = errors.New("nil simulation module")
	ErrDuplicateModule         = errors.New("module already registered")
	ErrModuleNotFound          = errors.New("module not found")
	ErrUnknownModule           = errors.New("unknown module kind")
	ErrInvalidSetting          = errors.New("invalid module setting")
	ErrMissingSimulatorSection = errors.New("Simulator section missing from config file")

	ErrClockNotStarted   = errors.New("simulation clock not started")
	ErrInvalidTimestamp  = errors.New("event timestamp differs from current simulation time")
	ErrReservedEventType = errors.New("event type is reserved for the engine")
	ErrUnknownEventType  = errors.New("unknown event type")
	ErrInvalidPeriod     = errors.New("repeating alarm period must be positive")
	ErrTraceStalled      = errors.New("trace source returned no events before end of trace")

	// ErrTerminated is returned by Run when the operator quits from the debug prompt.
	ErrTerminated = errors.New("simulation terminated from debug prompt")
)
