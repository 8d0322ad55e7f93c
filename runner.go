// Package steploop provides a controllable repeating-task runner. A Runner
// repeatedly invokes a step function until the function returns false or an
// external stop request arrives, either blocking the calling goroutine or
// detached on a background goroutine that can be queried and stopped from
// elsewhere. It is a lifecycle primitive for polling- and retry-style loops
// that need external cancellation and observable running status; it has no
// notion of wall-clock period.
package steploop

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/atlanticdynamic/steploop/internal/finitestate"
	"github.com/gofrs/uuid/v5"
	"github.com/robbyt/go-loglater"
)

// StepFunc is a no-argument callable returning a boolean continuation
// signal: true means "keep looping," false means "stop."
type StepFunc func() bool

// Runner drives a step function in a loop, on the caller's goroutine via
// Run or on a background goroutine via RunAsync. A Runner supports at most
// one active loop at a time; a second concurrent start is rejected with
// ErrAlreadyRunning. Runners must not be copied after first use.
type Runner struct {
	logger *slog.Logger
	fsm    finitestate.Machine

	// keepRunning is the cooperative cancellation flag, checked at each
	// iteration boundary. Reset to true at the start of every invocation.
	keepRunning atomic.Bool

	// isRunning is true only while a loop invocation is between its entry
	// and exit points. Written only by the executing goroutine.
	isRunning atomic.Bool

	// task holds the most recent asynchronous run. It is replaced on the
	// next RunAsync rather than cleared on completion, so the finished
	// run's fault and log history stay observable.
	taskMu sync.Mutex
	task   *task
}

// task is the handle for one asynchronous loop invocation.
type task struct {
	id        uuid.UUID
	done      chan struct{}
	collector *loglater.LogCollector

	// err is written by the worker before done is closed, and read only
	// after done is observed closed.
	err error
}

// New creates an idle Runner with no background task.
func New(opts ...Option) (*Runner, error) {
	r := &Runner{
		logger: slog.Default().WithGroup("steploop.Runner"),
	}

	// Apply functional options
	for _, opt := range opts {
		opt(r)
	}

	// Initialize the finite state machine
	fsmLogger := r.logger.WithGroup("fsm")
	machine, err := finitestate.New(fsmLogger.Handler())
	if err != nil {
		return nil, fmt.Errorf("failed to create state machine: %w", err)
	}
	r.fsm = machine

	return r, nil
}

func (r *Runner) String() string {
	return "steploop.Runner"
}

// Run invokes step repeatedly on the calling goroutine, blocking for the
// loop's full duration. Before the first invocation the continuation flag
// is reset to true; the loop continues while the flag and the step's last
// return value both remain true. A panic raised by the step function is
// not caught here and propagates to the caller, with the running flag
// still cleared on the way out.
func (r *Runner) Run(step StepFunc) error {
	if step == nil {
		return ErrNilStep
	}
	if err := r.begin(); err != nil {
		return err
	}
	r.execute(step, r.logger)
	return nil
}

// RunAsync takes ownership of step and begins executing the loop on a new
// goroutine. It blocks only until the worker signals that it has started,
// so the worker's existence happens-before this call returns, then hands
// control back to the caller. A panic raised by the step function is
// recovered in the worker, wrapped as ErrStepPanic, and surfaces from
// Wait, StopAndWait, or Close.
func (r *Runner) RunAsync(step StepFunc) error {
	if step == nil {
		return ErrNilStep
	}
	if err := r.begin(); err != nil {
		return err
	}

	t := &task{
		id:        uuid.Must(uuid.NewV6()),
		done:      make(chan struct{}),
		collector: loglater.NewLogCollector(r.logger.Handler()),
	}
	r.taskMu.Lock()
	r.task = t
	r.taskMu.Unlock()

	// The worker logs through the run's collector, so the run history can
	// be replayed later via PlayLogs.
	workerLogger := slog.New(t.collector).With("run_id", t.id)

	started := make(chan struct{})
	go func() {
		defer close(t.done)
		defer func() {
			if rec := recover(); rec != nil {
				t.err = fmt.Errorf("%w: %v", ErrStepPanic, rec)
				workerLogger.Error("Step function panicked", "panic", rec)
			}
		}()
		// One-shot start handshake: fires before the first step call.
		close(started)
		r.execute(step, workerLogger)
	}()

	<-started
	r.logger.Debug("Async run started", "run_id", t.id)
	return nil
}

// Stop requests cooperative termination. It is idempotent and safe to call
// from any goroutine at any time. The active loop observes the request at
// its next iteration boundary; a step call already in progress is never
// interrupted. A stop issued while no loop is active is harmless: every
// run resets the flag on entry.
func (r *Runner) Stop() {
	r.keepRunning.Store(false)
}

// Wait blocks until the outstanding asynchronous run has fully exited,
// then returns the fault it captured, if any. It returns nil immediately
// when no asynchronous run has been launched. Wait does not request a
// stop: a loop that never terminates on its own must be stopped first or
// Wait blocks forever.
func (r *Runner) Wait() error {
	r.taskMu.Lock()
	t := r.task
	r.taskMu.Unlock()
	if t == nil {
		return nil
	}

	<-t.done
	return t.err
}

// StopAndWait requests cooperative termination and then blocks until the
// loop has exited, returning any captured fault.
func (r *Runner) StopAndWait() error {
	r.Stop()
	return r.Wait()
}

// Close implements io.Closer. It blocks until any outstanding background
// run completes, guaranteeing the worker goroutine never outlives the
// Runner's retirement, and returns that run's captured fault. Close does
// not call Stop first; ensuring the loop terminates is the caller's
// obligation.
func (r *Runner) Close() error {
	return r.Wait()
}

// PlayLogs replays the log history of the most recent asynchronous run
// through the given handler. It returns nil when no asynchronous run has
// been launched.
func (r *Runner) PlayLogs(handler slog.Handler) error {
	r.taskMu.Lock()
	t := r.task
	r.taskMu.Unlock()
	if t == nil {
		return nil
	}
	return t.collector.PlayLogs(handler)
}

// begin claims the runner for a new loop invocation. The idle -> running
// transition is the compare-and-exchange entry guard; a faulted runner is
// re-runnable.
func (r *Runner) begin() error {
	for _, from := range []string{finitestate.StatusIdle, finitestate.StatusFaulted} {
		if err := r.fsm.TransitionIfCurrentState(from, finitestate.StatusRunning); err == nil {
			return nil
		}
	}
	return ErrAlreadyRunning
}

// execute drives the loop on the calling goroutine. The step function is
// re-invoked while both the continuation flag and its own last return
// value remain true; the flag is read only at iteration boundaries. The
// running flag is cleared on every exit path, including a panicking step.
func (r *Runner) execute(step StepFunc, logger *slog.Logger) {
	r.keepRunning.Store(true)
	r.isRunning.Store(true)

	completed := false
	defer func() {
		r.isRunning.Store(false)
		r.finish(!completed)
	}()

	logger.Debug("Loop started")
	for r.keepRunning.Load() && step() {
	}
	completed = true
	logger.Debug("Loop exited", "stop_requested", !r.keepRunning.Load())
}

// finish records the loop's exit in the state machine.
func (r *Runner) finish(faulted bool) {
	target := finitestate.StatusIdle
	if faulted {
		target = finitestate.StatusFaulted
	}
	if err := r.fsm.Transition(target); err != nil {
		r.logger.Error("Failed to record loop exit", "state", target, "error", err)
	}
}
