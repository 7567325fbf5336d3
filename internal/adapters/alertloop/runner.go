// Package alertloop provides the adapter for running the saved-search alert
// delivery loop.
package alertloop

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jobradar/jobradar/internal/service"
)

// AlertSweeper processes one batch of due alerts.
type AlertSweeper interface {
	RunDueAlertsOnce(ctx context.Context, batchLimit int) (service.RunSummary, error)
}

// Runner drives the alert sweep on a fixed interval. Sweeps never overlap:
// the loop is single-threaded and a slow sweep simply delays the next tick.
type Runner struct {
	sweeper    AlertSweeper
	interval   time.Duration
	batchLimit int
	logger     *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Sweeper    AlertSweeper
	Interval   time.Duration
	BatchLimit int
	Logger     *slog.Logger
}

// NewRunner creates a new alert loop runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}
	return &Runner{
		sweeper:    opts.Sweeper,
		interval:   opts.Interval,
		batchLimit: opts.BatchLimit,
		logger:     opts.Logger,
	}, nil
}

// validateRunnerOptions validates and sets defaults for RunnerOptions.
func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.Sweeper == nil {
		return errors.New("alert sweeper is required")
	}
	if opts.Interval < 5*time.Second {
		opts.Interval = 5 * time.Second
	}
	if opts.BatchLimit <= 0 {
		opts.BatchLimit = 200
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return nil
}

// Run starts the alert loop and runs until the context is cancelled. Sweep
// errors are logged and the loop keeps going.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting alert runner",
		"interval", r.interval.String(),
		"batch_limit", r.batchLimit,
	)

	// Sweep immediately so a restart does not delay overdue alerts by a
	// full interval.
	r.sweep(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "alert runner stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Runner) sweep(ctx context.Context) {
	runID := uuid.NewString()
	start := time.Now()

	summary, err := r.sweeper.RunDueAlertsOnce(ctx, r.batchLimit)
	elapsed := time.Since(start)

	if err != nil {
		r.logger.ErrorContext(ctx, "alert sweep failed",
			"run_id", runID,
			"elapsed_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return
	}

	r.logger.InfoContext(ctx, "alert sweep complete",
		"run_id", runID,
		"elapsed_ms", elapsed.Milliseconds(),
		"due", summary.Due,
		"processed", summary.Processed,
		"sent_alerts", summary.SentAlerts,
		"sent_jobs", summary.SentJobs,
		"noop", summary.Noop,
		"errors", summary.Errors,
		"inactive", summary.Inactive,
		"missing", summary.Missing,
	)
}
