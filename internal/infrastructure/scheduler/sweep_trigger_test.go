package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	taskapp "github.com/taskflow/backend/internal/application/task"
	"github.com/taskflow/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

type stubSweeper struct {
	calls atomic.Int32
	stats *taskapp.SweepStats
	err   error
}

func (s *stubSweeper) SweepExpired(_ context.Context, now time.Time) (*taskapp.SweepStats, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	st := *s.stats
	st.ProcessedAt = now
	return &st, nil
}

func TestSweepTrigger_RunOnceRecordsMetrics(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	metrics, err := telemetry.NewCollaborationMetrics(provider.Meter("test"))
	require.NoError(t, err)

	sweeper := &stubSweeper{stats: &taskapp.SweepStats{TotalExpired: 3, Deleted: 2, Failed: 1}}
	trigger := NewSweepTrigger(SweepTriggerConfig{}, sweeper, metrics, zap.NewNop())

	stats, err := trigger.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Deleted)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	removed := findSum(t, rm, "taskflow_sweep_removed_total")
	assert.Equal(t, int64(2), removed)
	failed := findSum(t, rm, "taskflow_sweep_failed_total")
	assert.Equal(t, int64(1), failed)
}

func findSum(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestSweepTrigger_RunOncePropagatesError(t *testing.T) {
	sweeper := &stubSweeper{err: errors.New("db down")}
	trigger := NewSweepTrigger(SweepTriggerConfig{}, sweeper, nil, zap.NewNop())

	_, err := trigger.RunOnce(context.Background())
	assert.EqualError(t, err, "db down")
}

func TestSweepTrigger_IntervalLoop(t *testing.T) {
	sweeper := &stubSweeper{stats: &taskapp.SweepStats{}}
	trigger := NewSweepTrigger(SweepTriggerConfig{Interval: 5 * time.Millisecond, RunOnStart: true}, sweeper, nil, zap.NewNop())

	require.NoError(t, trigger.Start(context.Background()))
	require.NoError(t, trigger.Start(context.Background()), "second start is a no-op")
	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	require.NoError(t, trigger.Stop(context.Background()))
	n := sweeper.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, sweeper.calls.Load(), "no sweeps after stop")
	require.NoError(t, trigger.Stop(context.Background()))
}
