// Package refreshcron provides the adapter for running the scheduled company
// refresh on a cron cadence.
package refreshcron

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/jobradar/jobradar/internal/domain/model"
	"github.com/jobradar/jobradar/internal/service"
)

// Refresher runs one aggregation pass over a company list.
type Refresher interface {
	Refresh(ctx context.Context, opts service.RefreshOptions) (service.RefreshSummary, error)
}

// CompanyLoader returns the current company list and the number of rejected
// records. Loading happens per run so list edits take effect without a restart.
type CompanyLoader func() ([]model.CompanyInput, int, error)

// Runner schedules company refresh runs with a cron expression.
type Runner struct {
	refresher Refresher
	load      CompanyLoader
	spec      string
	cities    []string
	keywords  []string
	provider  string
	logger    *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Refresher Refresher
	Load      CompanyLoader
	CronSpec  string
	Cities    []string
	Keywords  []string
	Provider  string
	Logger    *slog.Logger
}

// NewRunner creates a new refresh runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}
	return &Runner{
		refresher: opts.Refresher,
		load:      opts.Load,
		spec:      opts.CronSpec,
		cities:    opts.Cities,
		keywords:  opts.Keywords,
		provider:  opts.Provider,
		logger:    opts.Logger,
	}, nil
}

// validateRunnerOptions validates and sets defaults for RunnerOptions.
func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.Refresher == nil {
		return errors.New("refresher is required")
	}
	if opts.Load == nil {
		return errors.New("company loader is required")
	}
	if opts.CronSpec == "" {
		opts.CronSpec = "0 */6 * * *"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return nil
}

// Run registers the cron entry, fires one refresh immediately, and blocks
// until the context is cancelled. Overlapping runs are skipped.
func (r *Runner) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(r.spec, func() { r.refresh(ctx) }); err != nil {
		return errors.Join(errors.New("invalid refresh cron spec"), err)
	}

	r.logger.InfoContext(ctx, "starting refresh runner", "cron", r.spec)
	r.refresh(ctx)
	c.Start()

	<-ctx.Done()
	r.logger.InfoContext(ctx, "refresh runner stopping", "reason", ctx.Err())
	<-c.Stop().Done()

	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

func (r *Runner) refresh(ctx context.Context) {
	runID := uuid.NewString()
	start := time.Now()

	companies, skipped, err := r.load()
	if err != nil {
		r.logger.ErrorContext(ctx, "refresh company list load failed", "run_id", runID, "error", err)
		return
	}
	if skipped > 0 {
		r.logger.WarnContext(ctx, "refresh company list has invalid records", "run_id", runID, "skipped", skipped)
	}
	if len(companies) == 0 {
		r.logger.WarnContext(ctx, "refresh company list is empty", "run_id", runID)
		return
	}

	summary, err := r.refresher.Refresh(ctx, service.RefreshOptions{
		Companies: companies,
		Cities:    r.cities,
		Keywords:  r.keywords,
		Provider:  r.provider,
	})
	elapsed := time.Since(start)

	if err != nil {
		r.logger.ErrorContext(ctx, "refresh failed",
			"run_id", runID,
			"elapsed_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return
	}

	r.logger.InfoContext(ctx, "refresh complete",
		"run_id", runID,
		"elapsed_ms", elapsed.Milliseconds(),
		"companies", summary.Companies,
		"jobs_seen", summary.JobsSeen,
		"jobs_written", summary.JobsWritten,
		"inactive_marked", summary.InactiveMarked,
		"failed_fetches", summary.FailedFetches,
	)
}
