package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/domain/settlement"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/messmate/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// RolloverStatus is the outcome of one tenant's rollover
type RolloverStatus string

const (
	RolloverArchived RolloverStatus = "archived"
	RolloverSkipped  RolloverStatus = "skipped"
	RolloverFailed   RolloverStatus = "failed"
)

// Metrics receives rollover measurements
type Metrics interface {
	RecordBatch(ctx context.Context, trigger string)
	RecordRollover(ctx context.Context, outcome string, elapsed time.Duration)
	RecordRowsCleared(ctx context.Context, kind string, n int64)
}

type noopMetrics struct{}

func (noopMetrics) RecordBatch(context.Context, string)                  {}
func (noopMetrics) RecordRollover(context.Context, string, time.Duration) {}
func (noopMetrics) RecordRowsCleared(context.Context, string, int64)      {}

var ErrRolloverInProgress = shared.NewDomainError("ROLLOVER_IN_PROGRESS", "Rollover of this mess is already running")

// RolloverConfig contains configuration for the rollover service
type RolloverConfig struct {
	LockTTL  time.Duration
	Location *time.Location
}

// DefaultRolloverConfig returns default configuration
func DefaultRolloverConfig() RolloverConfig {
	return RolloverConfig{
		LockTTL:  10 * time.Minute,
		Location: time.UTC,
	}
}

// RolloverService closes the open period of each mess: it archives the
// computed statement, clears the working rows and advances the period.
type RolloverService struct {
	messRepo  mess.MessRepository
	store     mess.SettlementStore
	locker    shared.Locker
	publisher shared.EventPublisher
	config    RolloverConfig
	metrics   Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// RolloverOption is a functional option for RolloverService
type RolloverOption func(*RolloverService)

// WithMetrics sets the metrics sink
func WithMetrics(m Metrics) RolloverOption {
	return func(s *RolloverService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) RolloverOption {
	return func(s *RolloverService) {
		s.now = now
	}
}

// NewRolloverService creates a new rollover service
func NewRolloverService(
	messRepo mess.MessRepository,
	store mess.SettlementStore,
	locker shared.Locker,
	publisher shared.EventPublisher,
	config RolloverConfig,
	logger *zap.Logger,
	opts ...RolloverOption,
) *RolloverService {
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.LockTTL <= 0 {
		config.LockTTL = DefaultRolloverConfig().LockTTL
	}
	s := &RolloverService{
		messRepo:  messRepo,
		store:     store,
		locker:    locker,
		publisher: publisher,
		config:    config,
		metrics:   noopMetrics{},
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentTarget is the period the calendar is in right now
func (s *RolloverService) CurrentTarget() mess.Period {
	return mess.PeriodOf(s.now(), s.config.Location)
}

// ResolveTarget validates a requested target, defaulting to the calendar
// period. Targets past the calendar period are rejected.
func (s *RolloverService) ResolveTarget(requested string) (mess.Period, error) {
	current := s.CurrentTarget()
	if requested == "" {
		return current, nil
	}
	target, err := mess.ParsePeriod(requested)
	if err != nil {
		return mess.Period{}, err
	}
	if target.After(current) {
		return mess.Period{}, shared.NewDomainError("INVALID_TARGET",
			"Cannot roll over into "+target.String()+" before it has started")
	}
	return target, nil
}

// RunAll rolls every mess over to target. Each mess is processed on its own;
// one failure never stops the others.
func (s *RolloverService) RunAll(ctx context.Context, target mess.Period, trigger string) (*BatchResult, error) {
	messes, err := s.listAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list messes: %w", err)
	}

	s.metrics.RecordBatch(ctx, trigger)
	batch := &BatchResult{
		Target:    target,
		Trigger:   trigger,
		StartedAt: s.now(),
		Results:   make([]TenantResult, 0, len(messes)),
	}

	for i := range messes {
		m := &messes[i]
		var res TenantResult
		if !m.IsActive() {
			res = TenantResult{
				TenantID:   m.ID,
				FromPeriod: m.CurrentPeriod,
				ToPeriod:   target,
				Status:     RolloverSkipped,
				Reason:     "mess is " + m.Status.String(),
			}
			s.metrics.RecordRollover(ctx, string(RolloverSkipped), 0)
		} else {
			res = s.RolloverTenant(ctx, m.ID, target)
		}
		batch.add(res)
	}
	batch.Duration = s.now().Sub(batch.StartedAt)

	s.logger.Info("rollover batch finished",
		zap.String("target", target.String()),
		zap.String("trigger", trigger),
		zap.Int("archived", batch.Archived),
		zap.Int("skipped", batch.Skipped),
		zap.Int("failed", batch.Failed),
		zap.Duration("duration", batch.Duration),
	)
	return batch, nil
}

func (s *RolloverService) listAll(ctx context.Context) ([]mess.Mess, error) {
	filter := mess.MessFilter{Filter: shared.Filter{Page: 1, PageSize: 100, OrderBy: "created_at", OrderDir: "asc"}}
	var all []mess.Mess
	for {
		page, total, err := s.messRepo.FindAll(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) == 0 || int64(len(all)) >= total {
			return all, nil
		}
		filter.Page++
	}
}

// RunRollover rolls one tenant over and reports failures as errors. Skipped
// rollovers are successes.
func (s *RolloverService) RunRollover(ctx context.Context, tenantID uuid.UUID, target mess.Period) error {
	res := s.RolloverTenant(ctx, tenantID, target)
	if res.Status == RolloverFailed {
		return res.Err
	}
	return nil
}

// RolloverTenant closes the open period of one mess and moves it to target.
// It is safe to call repeatedly: a mess already on target is skipped, and an
// archive left behind by an interrupted run is reused.
func (s *RolloverService) RolloverTenant(ctx context.Context, tenantID uuid.UUID, target mess.Period) (res TenantResult) {
	start := s.now()
	res = TenantResult{TenantID: tenantID, ToPeriod: target}
	log := s.logger.With(zap.String("tenant_id", tenantID.String()), zap.String("target", target.String()))

	defer func() {
		res.Duration = s.now().Sub(start)
		s.metrics.RecordRollover(ctx, string(res.Status), res.Duration)
	}()

	m, err := s.messRepo.FindByID(ctx, tenantID)
	if err != nil {
		return res.fail(fmt.Errorf("failed to load mess: %w", err))
	}
	res.FromPeriod = m.CurrentPeriod

	switch {
	case !m.IsActive():
		return res.skip("mess is " + m.Status.String())
	case !m.NeedsRollover(target):
		return res.skip("already on target period")
	case m.CurrentPeriod.After(target):
		return res.fail(shared.NewDomainError("PERIOD_REGRESSION",
			"Current period "+m.CurrentPeriod.String()+" is after target "+target.String()))
	}

	key := fmt.Sprintf("rollover:%s:%s", tenantID, m.CurrentPeriod)
	token, acquired, err := s.locker.TryLock(ctx, key, s.config.LockTTL)
	if err != nil {
		return res.fail(fmt.Errorf("failed to acquire rollover lock: %w", err))
	}
	if !acquired {
		log.Info("rollover already running elsewhere, skipping")
		return res.skip(ErrRolloverInProgress.Message)
	}
	defer func() {
		unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.locker.Unlock(unlockCtx, key, token); err != nil {
			log.Warn("failed to release rollover lock", zap.Error(err))
		}
	}()

	var (
		archive *mess.SettlementArchive
		cleared mess.ClearedRows
		resumed bool
	)
	telemetry.TagRollover(ctx, tenantID.String(), m.CurrentPeriod.String(), func(ctx context.Context) {
		err = s.store.InTenantTx(ctx, tenantID, func(tx mess.SettlementStore) error {
			a, r, txErr := s.archive(ctx, tx, tenantID, m.CurrentPeriod)
			if txErr != nil {
				return txErr
			}
			c, txErr := tx.ClearAndAdvance(ctx, tenantID, m.CurrentPeriod, target)
			if txErr != nil {
				return fmt.Errorf("failed to clear working rows: %w", txErr)
			}
			archive, resumed, cleared = a, r, c
			return nil
		})
	})
	if errors.Is(err, mess.ErrPeriodMismatch) {
		return res.skip("period advanced concurrently")
	}
	if err != nil {
		log.Error("rollover failed", zap.Error(err))
		return res.fail(err)
	}

	res.Status = RolloverArchived
	res.ArchiveID = archive.ID
	res.Resumed = resumed
	res.Cleared = cleared
	s.recordCleared(ctx, cleared)

	event := mess.NewSettlementArchivedEvent(archive, target)
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Warn("failed to publish settlement archived event", zap.Error(err))
	}

	log.Info("mess rolled over",
		zap.String("from", res.FromPeriod.String()),
		zap.String("archive_id", archive.ID.String()),
		zap.Bool("resumed", resumed),
		zap.String("meal_rate", archive.MealRate.String()),
		zap.Int64("rows_cleared", cleared.Total()),
	)
	return res
}

// archive returns the stored archive of period, or computes and writes it
func (s *RolloverService) archive(ctx context.Context, tx mess.SettlementStore, tenantID uuid.UUID, period mess.Period) (*mess.SettlementArchive, bool, error) {
	existing, err := tx.FindArchive(ctx, tenantID, period)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up archive: %w", err)
	}

	ledger, err := tx.LoadLedger(ctx, tenantID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load ledger: %w", err)
	}
	a, err := mess.NewSettlementArchive(tenantID, period, settlement.Compute(ledger))
	if err != nil {
		return nil, false, err
	}
	if err := tx.SaveArchive(ctx, a); err != nil {
		return nil, false, fmt.Errorf("failed to write archive: %w", err)
	}
	return a, false, nil
}

func (s *RolloverService) recordCleared(ctx context.Context, c mess.ClearedRows) {
	s.metrics.RecordRowsCleared(ctx, "meals", c.Meals)
	s.metrics.RecordRowsCleared(ctx, "purchases", c.Purchases)
	s.metrics.RecordRowsCleared(ctx, "deposits", c.Deposits)
	s.metrics.RecordRowsCleared(ctx, "additional_costs", c.AdditionalCosts)
}

var _ Metrics = (*telemetry.SettlementMetrics)(nil)
