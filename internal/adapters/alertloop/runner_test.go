package alertloop

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobradar/jobradar/internal/service"
)

type countingSweeper struct {
	calls      atomic.Int32
	batchLimit atomic.Int32
}

func (s *countingSweeper) RunDueAlertsOnce(_ context.Context, batchLimit int) (service.RunSummary, error) {
	s.calls.Add(1)
	s.batchLimit.Store(int32(batchLimit))
	return service.RunSummary{}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRunnerRequiresSweeper(t *testing.T) {
	_, err := NewRunner(RunnerOptions{})
	assert.Error(t, err)
}

func TestNewRunnerClampsInterval(t *testing.T) {
	r, err := NewRunner(RunnerOptions{Sweeper: &countingSweeper{}, Interval: time.Millisecond, Logger: testLogger()})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, r.interval)
	assert.Equal(t, 200, r.batchLimit)
}

func TestRunSweepsImmediatelyAndStopsOnCancel(t *testing.T) {
	sweeper := &countingSweeper{}
	r, err := NewRunner(RunnerOptions{
		Sweeper:    sweeper,
		Interval:   time.Hour,
		BatchLimit: 50,
		Logger:     testLogger(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		return sweeper.calls.Load() == 1
	}, time.Second, 10*time.Millisecond, "the first sweep happens before the first tick")
	assert.Equal(t, int32(50), sweeper.batchLimit.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err, "cancellation is a clean shutdown")
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}
