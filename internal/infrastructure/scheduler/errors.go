package scheduler

import "errors"

var (
	// ErrRunnerStopped is returned when work is submitted after Stop
	ErrRunnerStopped = errors.New("job runner is stopped")

	// ErrJobPanicked wraps a recovered panic from a background job
	ErrJobPanicked = errors.New("background job panicked")
)
