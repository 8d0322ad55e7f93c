package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atlanticdynamic/steploop"
	"github.com/atlanticdynamic/steploop/internal/democfg"
	"github.com/robbyt/go-supervisor/supervisor"
	"github.com/urfave/cli/v3"
)

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "Run the demo countdown loop under supervision",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to TOML configuration file",
			Aliases: []string{"c"},
		},
		&cli.IntFlag{
			Name:  "iterations",
			Usage: "Override the configured iteration count",
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		cfg := democfg.Default()
		if configPath := cmd.String("config"); configPath != "" {
			loaded, err := democfg.NewConfig(configPath)
			if err != nil {
				return cli.Exit(fmt.Errorf("failed to load config: %w", err), 1)
			}
			cfg = loaded
		}
		if n := cmd.Int("iterations"); n > 0 {
			cfg.Loop.Iterations = int(n)
		}

		SetupLogger(cfg.LogLevel, cfg.LogFormat)
		logger := slog.Default()

		svc, err := steploop.NewService(
			countdownStep(logger.With("component", "countdown"), cfg),
			steploop.WithLogger(logger.With("component", "loop")),
		)
		if err != nil {
			return cli.Exit(fmt.Errorf("failed to create loop service: %w", err), 1)
		}

		super, err := supervisor.New(
			supervisor.WithRunnables(svc),
			supervisor.WithLogHandler(logger.Handler()),
			supervisor.WithContext(ctx),
		)
		if err != nil {
			return cli.Exit(fmt.Errorf("failed to create supervisor: %w", err), 1)
		}
		if err := super.Run(); err != nil {
			return cli.Exit(fmt.Errorf("failed to run loop: %w", err), 1)
		}

		logger.Info("Loop shutdown complete")
		return nil
	},
}

// countdownStep builds the demo step function: count down from the
// configured iteration count, sleeping the configured interval each step
// and logging progress every LogEvery iterations.
func countdownStep(logger *slog.Logger, cfg *democfg.Config) steploop.StepFunc {
	remaining := cfg.Loop.Iterations
	interval := cfg.Loop.Interval.Duration()
	return func() bool {
		remaining--
		if cfg.Loop.LogEvery > 0 && remaining%cfg.Loop.LogEvery == 0 {
			logger.Info("Countdown", "remaining", remaining)
		}
		if interval > 0 {
			time.Sleep(interval)
		}
		return remaining > 0
	}
}
