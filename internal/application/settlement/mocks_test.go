package settlement

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/domain/settlement"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockMessRepository is a mock implementation of mess.MessRepository
type MockMessRepository struct {
	mock.Mock
}

func (m *MockMessRepository) FindByID(ctx context.Context, id uuid.UUID) (*mess.Mess, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mess.Mess), args.Error(1)
}

func (m *MockMessRepository) FindByCode(ctx context.Context, code string) (*mess.Mess, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mess.Mess), args.Error(1)
}

func (m *MockMessRepository) FindAll(ctx context.Context, filter mess.MessFilter) ([]mess.Mess, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]mess.Mess), args.Get(1).(int64), args.Error(2)
}

func (m *MockMessRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockMessRepository) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockMessRepository) Save(ctx context.Context, ms *mess.Mess) error {
	return m.Called(ctx, ms).Error(0)
}

func (m *MockMessRepository) SaveWithLock(ctx context.Context, ms *mess.Mess) error {
	return m.Called(ctx, ms).Error(0)
}

// MockSettlementStore is a mock implementation of mess.SettlementStore.
// InTenantTx runs fn against the mock itself.
type MockSettlementStore struct {
	mock.Mock
}

func (m *MockSettlementStore) LoadLedger(ctx context.Context, tenantID uuid.UUID) (settlement.Ledger, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(settlement.Ledger), args.Error(1)
}

func (m *MockSettlementStore) FindArchive(ctx context.Context, tenantID uuid.UUID, period mess.Period) (*mess.SettlementArchive, error) {
	args := m.Called(ctx, tenantID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mess.SettlementArchive), args.Error(1)
}

func (m *MockSettlementStore) SaveArchive(ctx context.Context, a *mess.SettlementArchive) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockSettlementStore) ClearAndAdvance(ctx context.Context, tenantID uuid.UUID, from, to mess.Period) (mess.ClearedRows, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).(mess.ClearedRows), args.Error(1)
}

func (m *MockSettlementStore) InTenantTx(ctx context.Context, tenantID uuid.UUID, fn func(tx mess.SettlementStore) error) error {
	if err := m.Called(ctx, tenantID).Error(0); err != nil {
		return err
	}
	return fn(m)
}

// MockArchiveRepository is a mock implementation of mess.ArchiveRepository
type MockArchiveRepository struct {
	mock.Mock
}

func (m *MockArchiveRepository) FindByPeriod(ctx context.Context, tenantID uuid.UUID, period mess.Period) (*mess.SettlementArchive, error) {
	args := m.Called(ctx, tenantID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mess.SettlementArchive), args.Error(1)
}

func (m *MockArchiveRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]mess.SettlementArchive, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]mess.SettlementArchive), args.Get(1).(int64), args.Error(2)
}

func (m *MockArchiveRepository) FindMemberHistory(ctx context.Context, tenantID, memberID uuid.UUID) ([]mess.MemberPeriodLine, error) {
	args := m.Called(ctx, tenantID, memberID)
	return args.Get(0).([]mess.MemberPeriodLine), args.Error(1)
}

// MockObjectStorage is a mock implementation of ObjectStorage
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Called(ctx, key, data, contentType).Error(0)
}

func (m *MockObjectStorage) ObjectExists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockObjectStorage) GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, key, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) published() []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]shared.DomainEvent(nil), p.events...)
}
