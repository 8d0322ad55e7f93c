package steploop

import "errors"

var (
	// ErrNilStep indicates a nil step function was passed to Run or RunAsync
	ErrNilStep = errors.New("step function cannot be nil")

	// ErrAlreadyRunning indicates a run was started while another is still active
	ErrAlreadyRunning = errors.New("a run is already active on this runner")

	// ErrStepPanic wraps a panic raised by the step function during an async run
	ErrStepPanic = errors.New("step function panicked")
)
