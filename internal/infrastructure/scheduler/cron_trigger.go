package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/mess"
	"go.uber.org/zap"
)

var errTenantListing = errors.New("list active tenants")

// DefaultCronSchedule runs the rollover at 00:05 on the first day of the month
const DefaultCronSchedule = "5 0 1 * *"

// TenantProvider lists the tenants a rollover is scheduled for
type TenantProvider interface {
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

// MonthlySchedule is a "minute hour day-of-month * *" cron expression
type MonthlySchedule struct {
	Minute int
	Hour   int
	Day    int
}

// ParseMonthlySchedule parses "m h d * *". Only plain numbers are accepted in
// the first three fields and the month and weekday fields must be "*".
// Days are limited to 1-28 so the schedule fires in every month.
func ParseMonthlySchedule(cronExpr string) (MonthlySchedule, error) {
	if strings.TrimSpace(cronExpr) == "" {
		cronExpr = DefaultCronSchedule
	}

	parts := strings.Fields(cronExpr)
	if len(parts) != 5 {
		return MonthlySchedule{}, fmt.Errorf("%w: expected 5 fields, got %d", ErrInvalidSchedule, len(parts))
	}
	if parts[3] != "*" || parts[4] != "*" {
		return MonthlySchedule{}, fmt.Errorf("%w: month and weekday must be '*'", ErrInvalidSchedule)
	}

	minute, err := parseField(parts[0], 0, 59, "minute")
	if err != nil {
		return MonthlySchedule{}, err
	}
	hour, err := parseField(parts[1], 0, 23, "hour")
	if err != nil {
		return MonthlySchedule{}, err
	}
	// Next and Last build dates with time.Date, which normalizes day 29-31 into
	// the following month. Widening this bound needs a clamp there first.
	day, err := parseField(parts[2], 1, 28, "day")
	if err != nil {
		return MonthlySchedule{}, err
	}

	return MonthlySchedule{Minute: minute, Hour: hour, Day: day}, nil
}

func parseField(s string, min, max int, name string) (int, error) {
	if s == "" || len(s) > 2 {
		return 0, fmt.Errorf("%w: invalid %s %q", ErrInvalidSchedule, name, s)
	}
	var val int
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: invalid %s %q", ErrInvalidSchedule, name, s)
		}
		val = val*10 + int(c-'0')
	}
	if val < min || val > max {
		return 0, fmt.Errorf("%w: %s must be %d-%d, got %d", ErrInvalidSchedule, name, min, max, val)
	}
	return val, nil
}

// Last returns the most recent scheduled instant at or before now, in now's
// location
func (s MonthlySchedule) Last(now time.Time) time.Time {
	last := time.Date(now.Year(), now.Month(), s.Day, s.Hour, s.Minute, 0, 0, now.Location())
	if last.After(now) {
		last = time.Date(now.Year(), now.Month()-1, s.Day, s.Hour, s.Minute, 0, 0, now.Location())
	}
	return last
}

// Next returns the first scheduled instant strictly after now, in now's location
func (s MonthlySchedule) Next(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), s.Day, s.Hour, s.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month()+1, s.Day, s.Hour, s.Minute, 0, 0, now.Location())
	}
	return next
}

func (s MonthlySchedule) String() string {
	return fmt.Sprintf("%d %d %d * *", s.Minute, s.Hour, s.Day)
}

// CronTriggerConfig holds configuration for the cron trigger
type CronTriggerConfig struct {
	Schedule      MonthlySchedule
	Location      *time.Location
	CheckInterval time.Duration
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	schedule, _ := ParseMonthlySchedule(DefaultCronSchedule)
	return CronTriggerConfig{
		Schedule:      schedule,
		Location:      time.UTC,
		CheckInterval: time.Minute,
	}
}

// CronTrigger submits the monthly rollover of every active tenant
type CronTrigger struct {
	config         CronTriggerConfig
	scheduler      *Scheduler
	tenantProvider TenantProvider
	logger         *zap.Logger
	now            func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning  bool
	lastRunAt  *time.Time
	lastTarget mess.Period
	firedFor   mess.Period
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(
	config CronTriggerConfig,
	scheduler *Scheduler,
	tenantProvider TenantProvider,
	logger *zap.Logger,
) *CronTrigger {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	return &CronTrigger{
		config:         config,
		scheduler:      scheduler,
		tenantProvider: tenantProvider,
		logger:         logger,
		now:            time.Now,
	}
}

// Start starts the cron trigger
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Rollover cron trigger started",
		zap.String("schedule", c.config.Schedule.String()),
		zap.String("timezone", c.config.Location.String()),
		zap.Duration("check_interval", c.config.CheckInterval),
		zap.Time("next_run_at", c.NextRunAt()),
	)

	return nil
}

// Stop stops the cron trigger
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Rollover cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	c.checkAndTrigger(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger fires once for the period of the most recent scheduled
// instant. A missed instant is caught up on the next check, at any day of the
// month. Tenants already in the target period skip the job.
func (c *CronTrigger) checkAndTrigger(ctx context.Context) bool {
	now := c.now().In(c.config.Location)
	target := mess.PeriodOf(c.config.Schedule.Last(now), c.config.Location)

	c.mu.Lock()
	if c.firedFor == target {
		c.mu.Unlock()
		return false
	}
	c.firedFor = target
	c.mu.Unlock()

	c.logger.Info("Triggering monthly rollover", zap.String("target", target.String()))
	if err := c.Trigger(ctx, target, TriggerCron); err != nil {
		c.logger.Error("Failed to trigger monthly rollover",
			zap.String("target", target.String()),
			zap.Error(err),
		)
		if errors.Is(err, errTenantListing) {
			// nothing was queued, try again on the next check
			c.mu.Lock()
			c.firedFor = mess.Period{}
			c.mu.Unlock()
		}
	}
	return true
}

// Trigger submits one rollover job per active tenant
func (c *CronTrigger) Trigger(ctx context.Context, target mess.Period, trigger Trigger) error {
	tenantIDs, err := c.tenantProvider.ListActiveIDs(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", errTenantListing, err)
	}

	c.logger.Info("Scheduling rollover for tenants",
		zap.String("target", target.String()),
		zap.Int("tenant_count", len(tenantIDs)),
	)

	now := c.now()
	c.mu.Lock()
	c.lastRunAt = &now
	c.lastTarget = target
	c.mu.Unlock()

	rejected, err := c.scheduler.ScheduleRollover(tenantIDs, target, trigger)
	for _, tenantID := range rejected {
		c.logger.Error("Failed to schedule rollover for tenant",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	}
	return err
}

// NextRunAt returns the next scheduled instant in the configured timezone
func (c *CronTrigger) NextRunAt() time.Time {
	return c.config.Schedule.Next(c.now().In(c.config.Location))
}

// GetStatus returns the trigger state for diagnostics
func (c *CronTrigger) GetStatus() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := map[string]any{
		"running":     c.isRunning,
		"schedule":    c.config.Schedule.String(),
		"timezone":    c.config.Location.String(),
		"next_run_at": c.config.Schedule.Next(c.now().In(c.config.Location)),
	}
	if c.lastRunAt != nil {
		status["last_run_at"] = *c.lastRunAt
		status["last_target"] = c.lastTarget.String()
	}
	return status
}
