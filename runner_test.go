package steploop

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/atlanticdynamic/steploop/internal/finitestate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()
	t.Run("creates runner with default options", func(t *testing.T) {
		runner, err := New()
		require.NoError(t, err)
		assert.NotNil(t, runner)
		assert.NotNil(t, runner.logger)
		assert.NotNil(t, runner.fsm)
		assert.False(t, runner.IsRunning())
		assert.Equal(t, finitestate.StatusIdle, runner.GetState())
	})

	t.Run("applies custom options", func(t *testing.T) {
		customLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))

		runner, err := New(WithLogger(customLogger))
		require.NoError(t, err)
		assert.Equal(t, customLogger, runner.logger)
	})

	t.Run("applies custom log handler", func(t *testing.T) {
		handler := slog.NewTextHandler(io.Discard, nil)

		runner, err := New(WithLogHandler(handler))
		require.NoError(t, err)
		assert.NotNil(t, runner.logger)
	})
}

func TestRunner_String(t *testing.T) {
	t.Parallel()
	runner, err := New()
	require.NoError(t, err)
	assert.Equal(t, "steploop.Runner", runner.String())
}

func TestRunner_Run(t *testing.T) {
	t.Parallel()
	t.Run("invokes the step function until it returns false", func(t *testing.T) {
		runner, err := New()
		require.NoError(t, err)

		count := 100
		require.NoError(t, runner.Run(func() bool {
			count--
			return count > 0
		}))

		assert.Equal(t, 0, count)
		assert.False(t, runner.IsRunning())
		assert.Equal(t, finitestate.StatusIdle, runner.GetState())
	})

	t.Run("invokes the step exactly once when it declines immediately", func(t *testing.T) {
		runner, err := New()
		require.NoError(t, err)

		calls := 0
		require.NoError(t, runner.Run(func() bool {
			calls++
			return false
		}))

		assert.Equal(t, 1, calls)
	})

	t.Run("rejects a nil step function", func(t *testing.T) {
		runner, err := New()
		require.NoError(t, err)
		assert.ErrorIs(t, runner.Run(nil), ErrNilStep)
	})

	t.Run("a stop issued before the run has no effect on it", func(t *testing.T) {
		runner, err := New()
		require.NoError(t, err)

		runner.Stop()

		count := 5
		require.NoError(t, runner.Run(func() bool {
			count--
			return count > 0
		}))
		assert.Equal(t, 0, count)
	})

	t.Run("a panicking step propagates and clears the running flag", func(t *testing.T) {
		runner, err := New(WithLogHandler(slog.NewTextHandler(io.Discard, nil)))
		require.NoError(t, err)

		assert.Panics(t, func() {
			_ = runner.Run(func() bool { panic("boom") })
		})
		assert.False(t, runner.IsRunning())
		assert.True(t, runner.Faulted())

		// The runner is usable again after a fault
		count := 3
		require.NoError(t, runner.Run(func() bool {
			count--
			return count > 0
		}))
		assert.Equal(t, 0, count)
		assert.False(t, runner.Faulted())
	})
}

func TestRunner_RunAsync(t *testing.T) {
	t.Parallel()
	t.Run("runs to natural completion observed by Wait", func(t *testing.T) {
		runner, err := New()
		require.NoError(t, err)

		var count atomic.Int64
		count.Store(1_000_000)
		require.NoError(t, runner.RunAsync(func() bool {
			return count.Add(-1) > 0
		}))

		require.NoError(t, runner.Wait())
		assert.Equal(t, int64(0), count.Load())
		assert.False(t, runner.IsRunning())
		assert.Equal(t, finitestate.StatusIdle, runner.GetState())
	})

	t.Run("rejects a nil step function", func(t *testing.T) {
		runner, err := New()
		require.NoError(t, err)
		assert.ErrorIs(t, runner.RunAsync(nil), ErrNilStep)
	})

	t.Run("returns only after the worker has begun", func(t *testing.T) {
		runner, err := New()
		require.NoError(t, err)

		var invoked atomic.Bool
		require.NoError(t, runner.RunAsync(func() bool {
			invoked.Store(true)
			return false
		}))

		assert.Eventually(t, func() bool {
			return invoked.Load()
		}, time.Second, time.Millisecond)
		require.NoError(t, runner.Wait())
	})

	t.Run("rejects a second start while a run is active", func(t *testing.T) {
		runner, err := New()
		require.NoError(t, err)

		gate := make(chan struct{})
		step := func() bool {
			<-gate
			return false
		}

		require.NoError(t, runner.RunAsync(step))
		assert.ErrorIs(t, runner.RunAsync(step), ErrAlreadyRunning)
		assert.ErrorIs(t, runner.Run(step), ErrAlreadyRunning)

		close(gate)
		require.NoError(t, runner.Wait())

		// Once the first run has exited, a new run is accepted
		count := 2
		require.NoError(t, runner.Run(func() bool {
			count--
			return count > 0
		}))
		assert.Equal(t, 0, count)
	})

	t.Run("a panicking step surfaces from Wait", func(t *testing.T) {
		runner, err := New(WithLogHandler(slog.NewTextHandler(io.Discard, nil)))
		require.NoError(t, err)

		require.NoError(t, runner.RunAsync(func() bool { panic("boom") }))

		err = runner.Wait()
		require.ErrorIs(t, err, ErrStepPanic)
		assert.Contains(t, err.Error(), "boom")
		assert.False(t, runner.IsRunning())
		assert.True(t, runner.Faulted())

		// The runner is usable again after a fault
		var count atomic.Int64
		count.Store(3)
		require.NoError(t, runner.RunAsync(func() bool {
			return count.Add(-1) > 0
		}))
		require.NoError(t, runner.Wait())
		assert.Equal(t, int64(0), count.Load())
	})
}

func TestRunner_Stop(t *testing.T) {
	t.Parallel()
	t.Run("interrupts an async run before natural completion", func(t *testing.T) {
		runner, err := New()
		require.NoError(t, err)

		var count atomic.Int64
		count.Store(360_000_000)
		require.NoError(t, runner.RunAsync(func() bool {
			time.Sleep(time.Millisecond)
			return count.Add(-1) > 0
		}))

		time.Sleep(100 * time.Millisecond)
		require.NoError(t, runner.StopAndWait())

		assert.Positive(t, count.Load())
		assert.False(t, runner.IsRunning())
	})

	t.Run("is idempotent", func(t *testing.T) {
		runner, err := New()
		require.NoError(t, err)

		runner.Stop()
		runner.Stop()

		count := 5
		require.NoError(t, runner.Run(func() bool {
			count--
			return count > 0
		}))
		assert.Equal(t, 0, count)

		runner.Stop()
		runner.Stop()
		assert.False(t, runner.IsRunning())
	})
}

func TestRunner_Wait(t *testing.T) {
	t.Parallel()
	t.Run("returns nil when no async run was launched", func(t *testing.T) {
		runner, err := New()
		require.NoError(t, err)
		assert.NoError(t, runner.Wait())
	})

	t.Run("is safe to call repeatedly", func(t *testing.T) {
		runner, err := New()
		require.NoError(t, err)

		var count atomic.Int64
		count.Store(10)
		require.NoError(t, runner.RunAsync(func() bool {
			return count.Add(-1) > 0
		}))

		assert.NoError(t, runner.Wait())
		assert.NoError(t, runner.Wait())
	})
}

func TestRunner_Close(t *testing.T) {
	t.Parallel()
	t.Run("returns nil when no async run was launched", func(t *testing.T) {
		runner, err := New()
		require.NoError(t, err)
		assert.NoError(t, runner.Close())
	})

	t.Run("blocks until the outstanding run completes", func(t *testing.T) {
		runner, err := New()
		require.NoError(t, err)

		var count atomic.Int64
		count.Store(100_000)
		require.NoError(t, runner.RunAsync(func() bool {
			return count.Add(-1) > 0
		}))

		require.NoError(t, runner.Close())
		assert.Equal(t, int64(0), count.Load())
	})
}

func TestRunner_PlayLogs(t *testing.T) {
	t.Parallel()
	t.Run("returns nil when no async run was launched", func(t *testing.T) {
		runner, err := New()
		require.NoError(t, err)
		assert.NoError(t, runner.PlayLogs(slog.NewTextHandler(io.Discard, nil)))
	})

	t.Run("replays the run history", func(t *testing.T) {
		handler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
		runner, err := New(WithLogHandler(handler))
		require.NoError(t, err)

		var count atomic.Int64
		count.Store(10)
		require.NoError(t, runner.RunAsync(func() bool {
			return count.Add(-1) > 0
		}))
		require.NoError(t, runner.Wait())

		var buf bytes.Buffer
		playback := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
		require.NoError(t, runner.PlayLogs(playback))

		output := buf.String()
		assert.Contains(t, output, "Loop started")
		assert.Contains(t, output, "Loop exited")
		assert.Contains(t, output, "run_id")
	})
}
