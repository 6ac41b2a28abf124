package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/domain/settlement"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/messmate/backend/internal/infrastructure/cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	march = mess.MustParsePeriod("2024-03")
	april = mess.MustParsePeriod("2024-04")
)

type rolloverFixture struct {
	messRepo  *MockMessRepository
	store     *MockSettlementStore
	locker    *cache.InMemoryLocker
	publisher *recordingPublisher
	service   *RolloverService
}

func newRolloverFixture(t *testing.T) *rolloverFixture {
	t.Helper()
	f := &rolloverFixture{
		messRepo:  new(MockMessRepository),
		store:     new(MockSettlementStore),
		locker:    cache.NewInMemoryLocker(),
		publisher: &recordingPublisher{},
	}
	t.Cleanup(func() { _ = f.locker.Close() })

	loc, err := time.LoadLocation("Asia/Dhaka")
	require.NoError(t, err)
	f.service = NewRolloverService(f.messRepo, f.store, f.locker, f.publisher,
		RolloverConfig{LockTTL: time.Minute, Location: loc},
		zaptest.NewLogger(t),
		WithClock(func() time.Time { return time.Date(2024, 4, 1, 0, 5, 0, 0, loc) }),
	)
	return f
}

func newTestMess(t *testing.T, code string, period mess.Period) *mess.Mess {
	t.Helper()
	m, err := mess.NewMess(code, "Mess "+code, period)
	require.NoError(t, err)
	return m
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// two members: A ate 40 units and paid 2500, B ate 20 and paid 500; bazar 3000
func sampleLedger(a, b uuid.UUID) settlement.Ledger {
	return settlement.Ledger{
		Purchases:       []decimal.Decimal{dec("1800"), dec("1200")},
		AdditionalCosts: []decimal.Decimal{dec("600")},
		MealUnits:       map[uuid.UUID]int64{a: 40, b: 20},
		Deposits:        map[uuid.UUID]decimal.Decimal{a: dec("2500"), b: dec("500")},
		Roster: []settlement.MemberInfo{
			{ID: a, Name: "A", Active: true},
			{ID: b, Name: "B", Active: true},
		},
	}
}

func TestRolloverTenant_ArchivesClearsAndAdvances(t *testing.T) {
	f := newRolloverFixture(t)
	ctx := context.Background()
	m := newTestMess(t, "HALL-1", march)
	a, b := uuid.New(), uuid.New()

	var saved *mess.SettlementArchive
	f.messRepo.On("FindByID", ctx, m.ID).Return(m, nil)
	f.store.On("InTenantTx", mock.Anything, m.ID).Return(nil)
	f.store.On("FindArchive", mock.Anything, m.ID, march).Return(nil, shared.ErrNotFound)
	f.store.On("LoadLedger", mock.Anything, m.ID).Return(sampleLedger(a, b), nil)
	f.store.On("SaveArchive", mock.Anything, mock.AnythingOfType("*mess.SettlementArchive")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*mess.SettlementArchive) }).
		Return(nil)
	f.store.On("ClearAndAdvance", mock.Anything, m.ID, march, april).
		Return(mess.ClearedRows{Meals: 60, Purchases: 2, Deposits: 2, AdditionalCosts: 1}, nil)

	res := f.service.RolloverTenant(ctx, m.ID, april)

	require.Equal(t, RolloverArchived, res.Status, res.Error)
	assert.Equal(t, march, res.FromPeriod)
	assert.Equal(t, april, res.ToPeriod)
	assert.False(t, res.Resumed)
	assert.Equal(t, int64(65), res.Cleared.Total())

	require.NotNil(t, saved)
	assert.Equal(t, saved.ID, res.ArchiveID)
	assert.Equal(t, march, saved.Period)
	assert.True(t, saved.MealRate.Equal(dec("50")))
	assert.True(t, saved.AdditionalPerHead.Equal(dec("300")))

	lineA, ok := saved.MemberLine(a)
	require.True(t, ok)
	assert.True(t, lineA.AllocatedCost.Equal(dec("2300")))
	assert.True(t, lineA.Balance.Equal(dec("200")))
	lineB, ok := saved.MemberLine(b)
	require.True(t, ok)
	assert.True(t, lineB.Balance.Equal(dec("-800")))

	events := f.publisher.published()
	require.Len(t, events, 1)
	archived, ok := events[0].(*mess.SettlementArchivedEvent)
	require.True(t, ok)
	assert.Equal(t, saved.ID, archived.ArchiveID)
	assert.Equal(t, "2024-04", archived.NextPeriod)
	assert.Equal(t, m.ID, archived.TenantID())

	// the lock was released
	_, acquired, err := f.locker.TryLock(ctx, "rollover:"+m.ID.String()+":2024-03", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	f.store.AssertExpectations(t)
}

func TestRolloverTenant_AlreadyOnTarget(t *testing.T) {
	f := newRolloverFixture(t)
	ctx := context.Background()
	m := newTestMess(t, "HALL-1", april)
	f.messRepo.On("FindByID", ctx, m.ID).Return(m, nil)

	res := f.service.RolloverTenant(ctx, m.ID, april)

	assert.Equal(t, RolloverSkipped, res.Status)
	assert.Equal(t, "already on target period", res.Reason)
	f.store.AssertNotCalled(t, "InTenantTx", mock.Anything, mock.Anything)
	assert.Empty(t, f.publisher.published())
}

func TestRolloverTenant_PeriodRegression(t *testing.T) {
	f := newRolloverFixture(t)
	ctx := context.Background()
	m := newTestMess(t, "HALL-1", mess.MustParsePeriod("2024-05"))
	f.messRepo.On("FindByID", ctx, m.ID).Return(m, nil)

	res := f.service.RolloverTenant(ctx, m.ID, april)

	assert.Equal(t, RolloverFailed, res.Status)
	assert.Equal(t, "PERIOD_REGRESSION", shared.ErrorCode(res.Err))
	f.store.AssertNotCalled(t, "InTenantTx", mock.Anything, mock.Anything)
}

func TestRolloverTenant_InactiveMessSkipped(t *testing.T) {
	f := newRolloverFixture(t)
	ctx := context.Background()
	m := newTestMess(t, "HALL-1", march)
	require.NoError(t, m.Suspend())
	f.messRepo.On("FindByID", ctx, m.ID).Return(m, nil)

	res := f.service.RolloverTenant(ctx, m.ID, april)

	assert.Equal(t, RolloverSkipped, res.Status)
	assert.Equal(t, "mess is suspended", res.Reason)
}

func TestRolloverTenant_LockHeldElsewhere(t *testing.T) {
	f := newRolloverFixture(t)
	ctx := context.Background()
	m := newTestMess(t, "HALL-1", march)
	f.messRepo.On("FindByID", ctx, m.ID).Return(m, nil)

	_, ok, err := f.locker.TryLock(ctx, "rollover:"+m.ID.String()+":2024-03", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	res := f.service.RolloverTenant(ctx, m.ID, april)

	assert.Equal(t, RolloverSkipped, res.Status)
	assert.Equal(t, ErrRolloverInProgress.Message, res.Reason)
	f.store.AssertNotCalled(t, "InTenantTx", mock.Anything, mock.Anything)
}

func TestRolloverTenant_ArchiveWriteFailureDeletesNothing(t *testing.T) {
	f := newRolloverFixture(t)
	ctx := context.Background()
	m := newTestMess(t, "HALL-1", march)
	a, b := uuid.New(), uuid.New()

	f.messRepo.On("FindByID", ctx, m.ID).Return(m, nil)
	f.store.On("InTenantTx", mock.Anything, m.ID).Return(nil)
	f.store.On("FindArchive", mock.Anything, m.ID, march).Return(nil, shared.ErrNotFound)
	f.store.On("LoadLedger", mock.Anything, m.ID).Return(sampleLedger(a, b), nil)
	f.store.On("SaveArchive", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	res := f.service.RolloverTenant(ctx, m.ID, april)

	assert.Equal(t, RolloverFailed, res.Status)
	assert.ErrorContains(t, res.Err, "disk full")
	f.store.AssertNotCalled(t, "ClearAndAdvance", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.publisher.published())
}

func TestRolloverTenant_ResumesFromExistingArchive(t *testing.T) {
	f := newRolloverFixture(t)
	ctx := context.Background()
	m := newTestMess(t, "HALL-1", march)

	existing, err := mess.NewSettlementArchive(m.ID, march, settlement.Compute(settlement.Ledger{}))
	require.NoError(t, err)

	f.messRepo.On("FindByID", ctx, m.ID).Return(m, nil)
	f.store.On("InTenantTx", mock.Anything, m.ID).Return(nil)
	f.store.On("FindArchive", mock.Anything, m.ID, march).Return(existing, nil)
	f.store.On("ClearAndAdvance", mock.Anything, m.ID, march, april).Return(mess.ClearedRows{}, nil)

	res := f.service.RolloverTenant(ctx, m.ID, april)

	require.Equal(t, RolloverArchived, res.Status, res.Error)
	assert.True(t, res.Resumed)
	assert.Equal(t, existing.ID, res.ArchiveID)
	f.store.AssertNotCalled(t, "LoadLedger", mock.Anything, mock.Anything)
	f.store.AssertNotCalled(t, "SaveArchive", mock.Anything, mock.Anything)
}

func TestRolloverTenant_ConcurrentAdvanceIsSkipped(t *testing.T) {
	f := newRolloverFixture(t)
	ctx := context.Background()
	m := newTestMess(t, "HALL-1", march)

	f.messRepo.On("FindByID", ctx, m.ID).Return(m, nil)
	f.store.On("InTenantTx", mock.Anything, m.ID).Return(nil)
	f.store.On("FindArchive", mock.Anything, m.ID, march).Return(nil, shared.ErrNotFound)
	f.store.On("LoadLedger", mock.Anything, m.ID).Return(settlement.Ledger{}, nil)
	f.store.On("SaveArchive", mock.Anything, mock.Anything).Return(nil)
	f.store.On("ClearAndAdvance", mock.Anything, m.ID, march, april).Return(mess.ClearedRows{}, mess.ErrPeriodMismatch)

	res := f.service.RolloverTenant(ctx, m.ID, april)

	assert.Equal(t, RolloverSkipped, res.Status)
	assert.Empty(t, f.publisher.published())
}

func TestRunAll_OneFailureDoesNotStopOthers(t *testing.T) {
	f := newRolloverFixture(t)
	ctx := context.Background()

	broken := newTestMess(t, "BROKEN", march)
	healthy := newTestMess(t, "HEALTHY", march)
	suspended := newTestMess(t, "SUSPENDED", march)
	require.NoError(t, suspended.Suspend())

	f.messRepo.On("FindAll", ctx, mock.Anything).
		Return([]mess.Mess{*broken, *healthy, *suspended}, int64(3), nil)
	f.messRepo.On("FindByID", ctx, broken.ID).Return(nil, errors.New("connection reset"))
	f.messRepo.On("FindByID", ctx, healthy.ID).Return(healthy, nil)
	f.store.On("InTenantTx", mock.Anything, healthy.ID).Return(nil)
	f.store.On("FindArchive", mock.Anything, healthy.ID, march).Return(nil, shared.ErrNotFound)
	f.store.On("LoadLedger", mock.Anything, healthy.ID).Return(settlement.Ledger{}, nil)
	f.store.On("SaveArchive", mock.Anything, mock.Anything).Return(nil)
	f.store.On("ClearAndAdvance", mock.Anything, healthy.ID, march, april).Return(mess.ClearedRows{}, nil)

	batch, err := f.service.RunAll(ctx, april, "manual")
	require.NoError(t, err)

	require.Len(t, batch.Results, 3)
	assert.Equal(t, 1, batch.Archived)
	assert.Equal(t, 1, batch.Skipped)
	assert.Equal(t, 1, batch.Failed)
	assert.Equal(t, RolloverFailed, batch.Results[0].Status)
	assert.Equal(t, RolloverArchived, batch.Results[1].Status)
	assert.Equal(t, "mess is suspended", batch.Results[2].Reason)
	require.Len(t, batch.Failures(), 1)
	assert.Equal(t, broken.ID, batch.Failures()[0].TenantID)
}

func TestRunAll_Pages(t *testing.T) {
	f := newRolloverFixture(t)
	ctx := context.Background()

	first := make([]mess.Mess, 100)
	for i := range first {
		first[i] = *newTestMess(t, "P"+uuid.NewString()[:8], april)
	}
	last := newTestMess(t, "LAST", april)

	f.messRepo.On("FindAll", ctx, mock.MatchedBy(func(fl mess.MessFilter) bool { return fl.Page == 1 })).
		Return(first, int64(101), nil)
	f.messRepo.On("FindAll", ctx, mock.MatchedBy(func(fl mess.MessFilter) bool { return fl.Page == 2 })).
		Return([]mess.Mess{*last}, int64(101), nil)
	f.messRepo.On("FindByID", ctx, mock.Anything).Return(last, nil)

	batch, err := f.service.RunAll(ctx, april, "cron")
	require.NoError(t, err)
	assert.Len(t, batch.Results, 101)
	assert.Equal(t, 101, batch.Skipped)
}

func TestRunRollover(t *testing.T) {
	f := newRolloverFixture(t)
	ctx := context.Background()

	onTarget := newTestMess(t, "DONE", april)
	f.messRepo.On("FindByID", ctx, onTarget.ID).Return(onTarget, nil)
	assert.NoError(t, f.service.RunRollover(ctx, onTarget.ID, april))

	missing := uuid.New()
	f.messRepo.On("FindByID", ctx, missing).Return(nil, shared.ErrNotFound)
	err := f.service.RunRollover(ctx, missing, april)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestResolveTarget(t *testing.T) {
	f := newRolloverFixture(t)

	target, err := f.service.ResolveTarget("")
	require.NoError(t, err)
	assert.Equal(t, april, target)

	target, err = f.service.ResolveTarget("2024-02")
	require.NoError(t, err)
	assert.Equal(t, mess.MustParsePeriod("2024-02"), target)

	_, err = f.service.ResolveTarget("2024-05")
	assert.Equal(t, "INVALID_TARGET", shared.ErrorCode(err))

	_, err = f.service.ResolveTarget("April")
	assert.Error(t, err)
}
