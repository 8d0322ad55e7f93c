package steploop

import (
	"context"

	"github.com/atlanticdynamic/steploop/internal/finitestate"
)

// IsRunning reports whether a loop invocation is actively executing. The
// read is lock-free and eventually consistent: it may still be false in
// the brief window after RunAsync returns and before the worker enters the
// loop, and may remain true for a bounded interval after Stop until the
// loop reaches its next iteration boundary.
func (r *Runner) IsRunning() bool {
	return r.isRunning.Load()
}

// GetState returns the current lifecycle state of the runner.
func (r *Runner) GetState() string {
	return r.fsm.GetState()
}

// GetStateChan returns a channel that emits the runner's lifecycle state
// whenever it changes. The channel is closed when the context is canceled.
func (r *Runner) GetStateChan(ctx context.Context) <-chan string {
	return r.fsm.GetStateChan(ctx)
}

// Faulted reports whether the most recent run exited because the step
// function panicked.
func (r *Runner) Faulted() bool {
	return r.fsm.GetState() == finitestate.StatusFaulted
}
