package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/mess"
	"go.uber.org/zap"
)

// JobStatus represents the status of a scheduled job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Trigger records what submitted a job
type Trigger string

const (
	TriggerCron   Trigger = "cron"
	TriggerManual Trigger = "manual"
)

// Job is one tenant's rollover to a target period
type Job struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Target      mess.Period
	Trigger     Trigger
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time
}

// NewJob creates a new job instance
func NewJob(tenantID uuid.UUID, target mess.Period, trigger Trigger, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Target:     target,
		Trigger:    trigger,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry schedules the job for retry
func (j *Job) ScheduleRetry(delay time.Duration) {
	j.RetryCount++
	j.Status = JobStatusPending
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
}

// JobExecutor runs a job. A returned error marks the job failed.
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	Enabled           bool
	MaxConcurrentJobs int
	QueueSize         int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: 3,
		QueueSize:         256,
		JobTimeout:        5 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        time.Minute,
	}
}

// Validate checks the configuration
func (c SchedulerConfig) Validate() error {
	if c.MaxConcurrentJobs < 1 || c.JobTimeout <= 0 || c.RetryAttempts < 0 || c.RetryDelay < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Scheduler is a bounded worker pool for rollover jobs
type Scheduler struct {
	config   SchedulerConfig
	executor JobExecutor
	logger   *zap.Logger

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	retries   map[uuid.UUID]*time.Timer
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config SchedulerConfig, executor JobExecutor, logger *zap.Logger) *Scheduler {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultSchedulerConfig().QueueSize
	}
	return &Scheduler{
		config:   config,
		executor: executor,
		logger:   logger,
		jobs:     make(chan *Job, config.QueueSize),
		retries:  make(map[uuid.UUID]*time.Timer),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Rollover scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)

	return nil
}

// Stop gracefully stops the scheduler. Pending retries are dropped.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	for id, timer := range s.retries {
		timer.Stop()
		delete(s.retries, id)
	}
	close(s.jobs)
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Rollover scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Rollover scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether workers are accepting jobs
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// SubmitJob queues a job without blocking
func (s *Scheduler) SubmitJob(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}

	select {
	case s.jobs <- job:
		s.logger.Debug("Job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("tenant_id", job.TenantID.String()),
			zap.String("target", job.Target.String()),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// ScheduleRollover queues one rollover job per tenant. Tenants whose job could
// not be queued are returned with the first error.
func (s *Scheduler) ScheduleRollover(tenantIDs []uuid.UUID, target mess.Period, trigger Trigger) ([]uuid.UUID, error) {
	var (
		rejected []uuid.UUID
		firstErr error
	)
	for _, tenantID := range tenantIDs {
		job := NewJob(tenantID, target, trigger, s.config.RetryAttempts)
		if err := s.SubmitJob(job); err != nil {
			rejected = append(rejected, tenantID)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return rejected, firstErr
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	s.logger.Debug("Worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Worker stopping", zap.Int("worker_id", workerID))
			return
		case job, ok := <-s.jobs:
			if !ok {
				s.logger.Debug("Job channel closed", zap.Int("worker_id", workerID))
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	job.Start()
	log := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("tenant_id", job.TenantID.String()),
		zap.String("target", job.Target.String()),
		zap.String("trigger", string(job.Trigger)),
	)
	log.Info("Processing rollover job", zap.Int("attempt", job.RetryCount+1))

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	if err := s.executor.Execute(jobCtx, job); err != nil {
		job.Fail(err.Error())
		log.Error("Rollover job failed", zap.Error(err))

		if job.ShouldRetry() {
			job.ScheduleRetry(s.config.RetryDelay)
			log.Info("Rollover job scheduled for retry",
				zap.Int("retry_count", job.RetryCount),
				zap.Int("max_retries", job.MaxRetries),
				zap.Time("next_retry_at", *job.NextRetryAt),
			)
			s.retryLater(job)
		}
		return
	}

	job.Complete()
	log.Info("Rollover job completed")
}

// retryLater resubmits the job once its retry delay has passed
func (s *Scheduler) retryLater(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	s.retries[job.ID] = time.AfterFunc(s.config.RetryDelay, func() {
		s.mu.Lock()
		delete(s.retries, job.ID)
		s.mu.Unlock()

		if err := s.SubmitJob(job); err != nil {
			s.logger.Warn("Failed to re-queue rollover job for retry",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
		}
	})
}

// PendingRetries returns the number of jobs waiting for their retry delay
func (s *Scheduler) PendingRetries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.retries)
}
