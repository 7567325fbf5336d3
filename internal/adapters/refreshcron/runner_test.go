package refreshcron

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobradar/jobradar/internal/domain/model"
	"github.com/jobradar/jobradar/internal/service"
)

type recordingRefresher struct {
	mu   sync.Mutex
	opts []service.RefreshOptions
}

func (r *recordingRefresher) Refresh(_ context.Context, opts service.RefreshOptions) (service.RefreshSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opts = append(r.opts, opts)
	return service.RefreshSummary{Companies: len(opts.Companies)}, nil
}

func (r *recordingRefresher) calls() []service.RefreshOptions {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]service.RefreshOptions(nil), r.opts...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func staticLoader(companies []model.CompanyInput, skipped int) CompanyLoader {
	return func() ([]model.CompanyInput, int, error) { return companies, skipped, nil }
}

func TestNewRunnerValidation(t *testing.T) {
	_, err := NewRunner(RunnerOptions{Load: staticLoader(nil, 0)})
	assert.Error(t, err, "refresher is required")

	_, err = NewRunner(RunnerOptions{Refresher: &recordingRefresher{}})
	assert.Error(t, err, "company loader is required")

	r, err := NewRunner(RunnerOptions{
		Refresher: &recordingRefresher{},
		Load:      staticLoader(nil, 0),
		Logger:    testLogger(),
	})
	require.NoError(t, err)
	assert.Equal(t, "0 */6 * * *", r.spec)
}

func TestRunRefreshesImmediately(t *testing.T) {
	refresher := &recordingRefresher{}
	companies := []model.CompanyInput{{Provider: "greenhouse", Org: "acme", Name: "Acme"}}
	r, err := NewRunner(RunnerOptions{
		Refresher: refresher,
		Load:      staticLoader(companies, 0),
		CronSpec:  "0 0 1 1 *",
		Cities:    []string{"Tel Aviv"},
		Keywords:  []string{"go"},
		Provider:  "greenhouse",
		Logger:    testLogger(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(refresher.calls()) == 1
	}, time.Second, 10*time.Millisecond, "one refresh fires at startup")

	got := refresher.calls()[0]
	assert.Equal(t, companies, got.Companies)
	assert.Equal(t, []string{"Tel Aviv"}, got.Cities)
	assert.Equal(t, []string{"go"}, got.Keywords)
	assert.Equal(t, "greenhouse", got.Provider)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}

func TestRunEmptyCompanyListSkipsRefresh(t *testing.T) {
	refresher := &recordingRefresher{}
	r, err := NewRunner(RunnerOptions{
		Refresher: refresher,
		Load:      staticLoader(nil, 3),
		CronSpec:  "0 0 1 1 *",
		Logger:    testLogger(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, refresher.calls(), "nothing to refresh without companies")

	cancel()
	require.NoError(t, <-done)
}

func TestRunRejectsBadCronSpec(t *testing.T) {
	r, err := NewRunner(RunnerOptions{
		Refresher: &recordingRefresher{},
		Load:      staticLoader(nil, 0),
		CronSpec:  "not a cron spec",
		Logger:    testLogger(),
	})
	require.NoError(t, err)

	err = r.Run(context.Background())
	assert.Error(t, err)
}
