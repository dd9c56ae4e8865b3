package scheduler

import (
	"context"
	"sync"
	"time"

	taskapp "github.com/taskflow/backend/internal/application/task"
	"github.com/taskflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Sweeper removes expired tasks
type Sweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (*taskapp.SweepStats, error)
}

// SweepTriggerConfig holds configuration for the sweep trigger
type SweepTriggerConfig struct {
	Interval   time.Duration
	RunOnStart bool
	// Timeout bounds one sweep run
	Timeout time.Duration
}

// DefaultSweepTriggerConfig returns the default trigger configuration
func DefaultSweepTriggerConfig() SweepTriggerConfig {
	return SweepTriggerConfig{
		Interval: time.Hour,
		Timeout:  5 * time.Minute,
	}
}

// SweepTrigger runs the expiry sweep on a fixed interval. RunOnce is also
// used by the internal HTTP endpoint so both paths share metrics and logging.
type SweepTrigger struct {
	config  SweepTriggerConfig
	sweeper Sweeper
	metrics *telemetry.CollaborationMetrics
	logger  *zap.Logger
	now     func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSweepTrigger creates a new sweep trigger. metrics may be nil.
func NewSweepTrigger(config SweepTriggerConfig, sweeper Sweeper, metrics *telemetry.CollaborationMetrics, logger *zap.Logger) *SweepTrigger {
	def := DefaultSweepTriggerConfig()
	if config.Interval <= 0 {
		config.Interval = def.Interval
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweepTrigger{
		config:  config,
		sweeper: sweeper,
		metrics: metrics,
		logger:  logger.Named("sweep"),
		now:     time.Now,
	}
}

// Start starts the interval loop
func (t *SweepTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.mu.Unlock()

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Sweep trigger started",
		zap.Duration("interval", t.config.Interval),
		zap.Bool("run_on_start", t.config.RunOnStart),
	)
	return nil
}

// Stop stops the loop and waits for an in-flight sweep
func (t *SweepTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	cancel := t.cancel
	t.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Sweep trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *SweepTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	if t.config.RunOnStart {
		_, _ = t.RunOnce(ctx)
	}

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = t.RunOnce(ctx)
		}
	}
}

// RunOnce runs a single sweep bounded by the configured timeout
func (t *SweepTrigger) RunOnce(ctx context.Context) (*taskapp.SweepStats, error) {
	ctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	start := time.Now()
	stats, err := t.sweeper.SweepExpired(ctx, t.now())
	elapsed := time.Since(start)
	if err != nil {
		t.logger.Error("Expiry sweep failed", zap.Duration("duration", elapsed), zap.Error(err))
		return nil, err
	}

	t.metrics.SweepCompleted(ctx, stats.Deleted, stats.Failed, elapsed)
	t.logger.Info("Expiry sweep finished",
		zap.Int("deleted", stats.Deleted),
		zap.Int("failed", stats.Failed),
		zap.Int("blobs_failed", stats.BlobsFailed),
		zap.Duration("duration", elapsed),
	)
	return stats, nil
}
