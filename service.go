package steploop

import (
	"context"

	"github.com/robbyt/go-supervisor/supervisor"
)

// Interface guard: ensure Service implements required interfaces
var (
	_ supervisor.Runnable  = (*Service)(nil)
	_ supervisor.Stateable = (*Service)(nil)
)

// Service adapts a Runner and a step function to the go-supervisor
// Runnable interface, mapping context cancellation to a cooperative stop,
// so a repeating loop can run under supervision alongside other runnables.
type Service struct {
	runner *Runner
	step   StepFunc
}

// NewService wraps a step function in a supervisable loop service.
func NewService(step StepFunc, opts ...Option) (*Service, error) {
	if step == nil {
		return nil, ErrNilStep
	}

	runner, err := New(opts...)
	if err != nil {
		return nil, err
	}

	return &Service{
		runner: runner,
		step:   step,
	}, nil
}

func (s *Service) String() string {
	return "steploop.Service"
}

// Run drives the loop on the calling goroutine and blocks until it exits.
// The context is checked at every iteration boundary, so cancellation acts
// as a cooperative stop regardless of when it happens: a context already
// canceled at entry ends the loop before the first step invocation.
func (s *Service) Run(ctx context.Context) error {
	return s.runner.Run(func() bool {
		return ctx.Err() == nil && s.step()
	})
}

// Stop requests cooperative termination of the loop.
func (s *Service) Stop() {
	s.runner.Stop()
}

// IsRunning reports whether the loop is actively executing.
func (s *Service) IsRunning() bool {
	return s.runner.IsRunning()
}

// GetState returns the runner's lifecycle state.
func (s *Service) GetState() string {
	return s.runner.GetState()
}

// GetStateChan returns a channel that emits the runner's lifecycle state
// whenever it changes.
func (s *Service) GetStateChan(ctx context.Context) <-chan string {
	return s.runner.GetStateChan(ctx)
}
