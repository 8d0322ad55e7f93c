// Package finitestate tracks the lifecycle of a loop runner. It wraps the
// go-fsm state machine with the small transition set a runner needs:
// idle -> running on start, running -> idle on a clean exit, and
// running -> faulted when the step function panics.
package finitestate

import (
	"context"
	"log/slog"
	"time"

	"github.com/robbyt/go-fsm"
)

const (
	// StatusIdle is the resting state: no loop invocation is active.
	StatusIdle = "idle"

	// StatusRunning means a loop invocation is active on some goroutine.
	StatusRunning = "running"

	// StatusFaulted means the last run exited because the step function
	// panicked. A new run clears the fault.
	StatusFaulted = "faulted"
)

// LoopTransitions defines the valid state transitions for a loop runner.
// The idle -> running edge doubles as the compare-and-exchange guard that
// rejects a second concurrent run.
var LoopTransitions = map[string][]string{
	StatusIdle:    {StatusRunning},
	StatusRunning: {StatusIdle, StatusFaulted},
	StatusFaulted: {StatusRunning},
}

// SubscriberOption is a functional option for configuring state channel behavior
type SubscriberOption = fsm.SubscriberOption

// WithSyncTimeout sets a timeout for synchronous broadcast operations
var WithSyncTimeout = fsm.WithSyncTimeout

// Machine defines the interface for the finite state machine tracking the
// runner's lifecycle. This abstraction simplifies testing.
type Machine interface {
	// Transition attempts to transition the state machine to the specified state.
	Transition(state string) error

	// TransitionIfCurrentState attempts to transition the state machine to the
	// specified state, only if the current state matches the expected one.
	TransitionIfCurrentState(currentState, newState string) error

	// GetState returns the current state of the state machine.
	GetState() string

	// GetStateChan returns a channel that emits the state machine's state
	// whenever it changes. The channel is closed when the context is canceled.
	GetStateChan(ctx context.Context) <-chan string

	// GetStateChanWithOptions returns a channel with custom configuration options.
	// The channel is closed when the provided context is canceled.
	GetStateChanWithOptions(ctx context.Context, opts ...SubscriberOption) <-chan string
}

// LoopFSM embeds fsm.Machine and overrides GetStateChan for sync broadcast
type LoopFSM struct {
	*fsm.Machine
}

// GetStateChan returns a sync broadcast channel with 5-second timeout, so a
// loop entering and exiting in quick succession does not drop transitions
// before subscribers observe them
func (m *LoopFSM) GetStateChan(ctx context.Context) <-chan string {
	return m.GetStateChanWithOptions(ctx, WithSyncTimeout(5*time.Second))
}

// New creates a new finite state machine in the idle state, using the loop
// runner transition set.
func New(handler slog.Handler) (Machine, error) {
	machine, err := fsm.New(handler, StatusIdle, LoopTransitions)
	if err != nil {
		return nil, err
	}
	return &LoopFSM{Machine: machine}, nil
}
