package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// ErrInvalidSchedule is returned for cron expressions the trigger cannot run
	ErrInvalidSchedule = errors.New("invalid cron schedule")

	// ErrRolloverFailed is returned by the executor when a tenant's rollover failed
	ErrRolloverFailed = errors.New("rollover failed")
)
