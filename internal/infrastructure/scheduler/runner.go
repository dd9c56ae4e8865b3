// Package scheduler runs work outside the request path: detached background
// jobs such as assignment emails and the periodic expiry sweep.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RunnerConfig holds configuration for the background job runner
type RunnerConfig struct {
	// MaxConcurrent caps jobs running at once; extra jobs wait for a slot
	MaxConcurrent int
	// JobTimeout bounds a single job
	JobTimeout time.Duration
}

// DefaultRunnerConfig returns the default runner configuration
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		MaxConcurrent: 8,
		JobTimeout:    30 * time.Second,
	}
}

// JobRunner executes fire-and-forget jobs. A job's context is detached from
// the request that scheduled it and is cancelled only by its timeout or Stop.
type JobRunner struct {
	config RunnerConfig
	logger *zap.Logger
	slots  chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// NewJobRunner creates a runner ready to accept jobs
func NewJobRunner(config RunnerConfig, logger *zap.Logger) *JobRunner {
	def := DefaultRunnerConfig()
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = def.MaxConcurrent
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = def.JobTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &JobRunner{
		config: config,
		logger: logger.Named("jobs"),
		slots:  make(chan struct{}, config.MaxConcurrent),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Go schedules fn. Errors and panics are logged and never surface to the caller.
func (r *JobRunner) Go(name string, fn func(ctx context.Context) error) {
	if err := r.Submit(name, fn); err != nil {
		r.logger.Warn("Background job dropped", zap.String("job", name), zap.Error(err))
	}
}

// Submit is Go with the scheduling error exposed
func (r *JobRunner) Submit(name string, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrRunnerStopped
	}
	r.wg.Add(1)
	go r.run(name, fn)
	return nil
}

func (r *JobRunner) run(name string, fn func(ctx context.Context) error) {
	defer r.wg.Done()

	select {
	case r.slots <- struct{}{}:
	case <-r.ctx.Done():
		r.logger.Warn("Background job cancelled before start", zap.String("job", name))
		return
	}
	defer func() { <-r.slots }()

	ctx, cancel := context.WithTimeout(r.ctx, r.config.JobTimeout)
	defer cancel()

	start := time.Now()
	err := safeCall(ctx, fn)
	fields := []zap.Field{zap.String("job", name), zap.Duration("duration", time.Since(start))}
	if err != nil {
		r.logger.Error("Background job failed", append(fields, zap.Error(err))...)
		return
	}
	r.logger.Debug("Background job completed", fields...)
}

func safeCall(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrJobPanicked, p)
		}
	}()
	return fn(ctx)
}

// Stop refuses new jobs and waits for running ones. When ctx expires first
// the remaining jobs have their contexts cancelled and Stop returns.
func (r *JobRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		r.logger.Info("Job runner stopped")
		return nil
	case <-ctx.Done():
		r.cancel()
		return ctx.Err()
	}
}
