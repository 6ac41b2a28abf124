package mess

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/identity"
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

// MockMemberRepository is a mock implementation of mess.MemberRepository
type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) FindByID(ctx context.Context, id uuid.UUID) (*mess.Member, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mess.Member), args.Error(1)
}

func (m *MockMemberRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*mess.Member, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mess.Member), args.Error(1)
}

func (m *MockMemberRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter mess.MemberFilter) ([]mess.Member, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]mess.Member), args.Get(1).(int64), args.Error(2)
}

func (m *MockMemberRepository) ListRoster(ctx context.Context, tenantID uuid.UUID) ([]mess.Member, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]mess.Member), args.Error(1)
}

func (m *MockMemberRepository) ListManagers(ctx context.Context, tenantID uuid.UUID) ([]mess.Member, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]mess.Member), args.Error(1)
}

func (m *MockMemberRepository) ExistsByContact(ctx context.Context, email, phone string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, email, phone, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMemberRepository) Save(ctx context.Context, member *mess.Member) error {
	return m.Called(ctx, member).Error(0)
}

// MockAccountRepository is a mock implementation of identity.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByEmail(ctx context.Context, email string) (*identity.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByMemberID(ctx context.Context, memberID uuid.UUID) (*identity.Account, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Account), args.Error(1)
}

func (m *MockAccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) Save(ctx context.Context, a *identity.Account) error {
	return m.Called(ctx, a).Error(0)
}

// MockMealRecordRepository is a mock implementation of mess.MealRecordRepository
type MockMealRecordRepository struct {
	mock.Mock
}

func (m *MockMealRecordRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*mess.MealRecord, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mess.MealRecord), args.Error(1)
}

func (m *MockMealRecordRepository) FindByMemberAndDate(ctx context.Context, tenantID, memberID uuid.UUID, date time.Time) (*mess.MealRecord, error) {
	args := m.Called(ctx, tenantID, memberID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mess.MealRecord), args.Error(1)
}

func (m *MockMealRecordRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter mess.LedgerFilter) ([]mess.MealRecord, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]mess.MealRecord), args.Get(1).(int64), args.Error(2)
}

func (m *MockMealRecordRepository) Save(ctx context.Context, r *mess.MealRecord) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockMealRecordRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

// MockBazarRepository is a mock implementation of mess.BazarRepository
type MockBazarRepository struct {
	mock.Mock
}

func (m *MockBazarRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*mess.BazarPurchase, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mess.BazarPurchase), args.Error(1)
}

func (m *MockBazarRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter mess.LedgerFilter) ([]mess.BazarPurchase, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]mess.BazarPurchase), args.Get(1).(int64), args.Error(2)
}

func (m *MockBazarRepository) Save(ctx context.Context, p *mess.BazarPurchase) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockBazarRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

// MockDepositRepository is a mock implementation of mess.DepositRepository
type MockDepositRepository struct {
	mock.Mock
}

func (m *MockDepositRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*mess.Deposit, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mess.Deposit), args.Error(1)
}

func (m *MockDepositRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter mess.LedgerFilter) ([]mess.Deposit, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]mess.Deposit), args.Get(1).(int64), args.Error(2)
}

func (m *MockDepositRepository) Save(ctx context.Context, d *mess.Deposit) error {
	return m.Called(ctx, d).Error(0)
}

func (m *MockDepositRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

// MockLedgerReader is a mock implementation of mess.LedgerReader
type MockLedgerReader struct {
	mock.Mock
}

func (m *MockLedgerReader) LoadLedger(ctx context.Context, tenantID uuid.UUID) (settlement.Ledger, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(settlement.Ledger), args.Error(1)
}

// stubScope runs onboarding writes against the plain mocks
type stubScope struct {
	messRepo    *MockMessRepository
	memberRepo  *MockMemberRepository
	accountRepo *MockAccountRepository
	err         error
}

func (s *stubScope) Execute(_ context.Context, fn func(repos OnboardingRepositories) error) error {
	if s.err != nil {
		return s.err
	}
	return fn(s)
}

func (s *stubScope) MessRepo() mess.MessRepository          { return s.messRepo }
func (s *stubScope) MemberRepo() mess.MemberRepository       { return s.memberRepo }
func (s *stubScope) AccountRepo() identity.AccountRepository { return s.accountRepo }

// recordingPublisher keeps every published event
type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}
