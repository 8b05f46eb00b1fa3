package scheduler

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(zerolog.New(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })
	return s
}

func TestEvery_RunsPeriodically(t *testing.T) {
	s := newTestScheduler(t)
	var runs atomic.Int32
	require.NoError(t, s.Every("tick", 20*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	}))
	s.Start()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"tick"}, s.Jobs())
}

func TestEvery_FailingJobKeepsSchedule(t *testing.T) {
	s := newTestScheduler(t)
	var runs atomic.Int32
	require.NoError(t, s.Every("flaky", 20*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return errors.New("boom")
	}))
	s.Start()
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestEvery_RejectsBadInterval(t *testing.T) {
	s := newTestScheduler(t)
	assert.Error(t, s.Every("never", 0, func(context.Context) error { return nil }))
}

func TestRunNow(t *testing.T) {
	s := newTestScheduler(t)
	ran := make(chan struct{}, 1)
	require.NoError(t, s.Every("backup", time.Hour, func(context.Context) error {
		ran <- struct{}{}
		return nil
	}))
	s.Start()

	require.NoError(t, s.RunNow("backup"))
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
	assert.ErrorIs(t, s.RunNow("missing"), ErrUnknownJob)
}

func TestShutdown_CancelsRunningJob(t *testing.T) {
	s, err := New(zerolog.New(io.Discard))
	require.NoError(t, err)
	started := make(chan struct{})
	done := make(chan error, 1)
	require.NoError(t, s.Every("slow", time.Hour, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		done <- ctx.Err()
		return ctx.Err()
	}))
	s.Start()
	require.NoError(t, s.RunNow("slow"))
	<-started

	require.NoError(t, s.Shutdown())
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("job context was not cancelled")
	}
}
