package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/identity"
	"github.com/messmate/backend/internal/domain/mess"
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
