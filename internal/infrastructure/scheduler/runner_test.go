package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestJobRunner_RunsJob(t *testing.T) {
	r := NewJobRunner(RunnerConfig{MaxConcurrent: 2}, zap.NewNop())

	var ran atomic.Bool
	var ctxErr atomic.Value
	r.Go("email", func(ctx context.Context) error {
		ran.Store(true)
		if err := ctx.Err(); err != nil {
			ctxErr.Store(err)
		}
		return nil
	})

	require.NoError(t, r.Stop(context.Background()))
	assert.True(t, ran.Load())
	assert.Nil(t, ctxErr.Load())
}

func TestJobRunner_LogsFailuresAndPanics(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := NewJobRunner(RunnerConfig{}, zap.New(core))

	r.Go("fails", func(context.Context) error { return errors.New("smtp down") })
	r.Go("panics", func(context.Context) error { panic("boom") })
	require.NoError(t, r.Stop(context.Background()))

	failed := logs.FilterMessage("Background job failed").All()
	require.Len(t, failed, 2)
	messages := make(map[string]string)
	for _, e := range failed {
		fields := e.ContextMap()
		messages[fields["job"].(string)] = fields["error"].(string)
	}
	assert.Equal(t, "smtp down", messages["fails"])
	assert.True(t, strings.Contains(messages["panics"], "boom"))
}

func TestJobRunner_BoundsConcurrency(t *testing.T) {
	r := NewJobRunner(RunnerConfig{MaxConcurrent: 2}, zap.NewNop())

	var running, peak atomic.Int32
	for i := 0; i < 10; i++ {
		r.Go("job", func(context.Context) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return nil
		})
	}
	require.NoError(t, r.Stop(context.Background()))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestJobRunner_TimeoutCancelsJob(t *testing.T) {
	r := NewJobRunner(RunnerConfig{JobTimeout: 10 * time.Millisecond}, zap.NewNop())

	var got atomic.Value
	r.Go("slow", func(ctx context.Context) error {
		<-ctx.Done()
		got.Store(ctx.Err())
		return ctx.Err()
	})
	require.NoError(t, r.Stop(context.Background()))
	assert.ErrorIs(t, got.Load().(error), context.DeadlineExceeded)
}

func TestJobRunner_RejectsAfterStop(t *testing.T) {
	r := NewJobRunner(RunnerConfig{}, zap.NewNop())
	require.NoError(t, r.Stop(context.Background()))
	require.NoError(t, r.Stop(context.Background()))

	err := r.Submit("late", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrRunnerStopped)
}

func TestJobRunner_StopDeadlineCancelsRunningJobs(t *testing.T) {
	r := NewJobRunner(RunnerConfig{JobTimeout: time.Minute}, zap.NewNop())
	cancelled := make(chan struct{})
	r.Go("stuck", func(ctx context.Context) error {
		<-ctx.Done()
		close(cancelled)
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Stop(ctx), context.DeadlineExceeded)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("job context was not cancelled")
	}
}
