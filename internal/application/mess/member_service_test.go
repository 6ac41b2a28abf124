package mess

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/identity"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newMember(t *testing.T, tenantID uuid.UUID, name, email string) *mess.Member {
	t.Helper()
	m, err := mess.NewMember(tenantID, name, email, "")
	require.NoError(t, err)
	m.ClearDomainEvents()
	return m
}

func TestMemberService_Add(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("with login", func(t *testing.T) {
		members, accounts, pub := new(MockMemberRepository), new(MockAccountRepository), &recordingPublisher{}
		svc := NewMemberService(members, accounts, pub, zaptest.NewLogger(t))

		members.On("ExistsByContact", ctx, "karim@example.com", "", (*uuid.UUID)(nil)).Return(false, nil)
		accounts.On("ExistsByEmail", ctx, "karim@example.com").Return(false, nil)
		members.On("Save", ctx, mock.AnythingOfType("*mess.Member")).Return(nil)
		accounts.On("Save", ctx, mock.MatchedBy(func(a *identity.Account) bool {
			return a.Role == identity.RoleMember && *a.TenantID == tenantID
		})).Return(nil)

		resp, err := svc.Add(ctx, tenantID, AddMemberRequest{Name: "Karim", Email: "karim@example.com", Password: "passw0rd"})
		require.NoError(t, err)
		assert.Equal(t, "member", resp.Role)
		assert.True(t, resp.IsActive)
		assert.Equal(t, []string{mess.EventTypeMemberJoined}, pub.types())
		accounts.AssertExpectations(t)
	})

	t.Run("without login", func(t *testing.T) {
		members, accounts := new(MockMemberRepository), new(MockAccountRepository)
		svc := NewMemberService(members, accounts, nil, zaptest.NewLogger(t))

		members.On("ExistsByContact", ctx, "", "01711000000", (*uuid.UUID)(nil)).Return(false, nil)
		members.On("Save", ctx, mock.Anything).Return(nil)

		resp, err := svc.Add(ctx, tenantID, AddMemberRequest{Name: "Guest", Phone: "01711-000000"})
		require.NoError(t, err)
		assert.Equal(t, "01711000000", resp.Phone)
		accounts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("contact used in another mess", func(t *testing.T) {
		members := new(MockMemberRepository)
		svc := NewMemberService(members, new(MockAccountRepository), nil, zaptest.NewLogger(t))
		members.On("ExistsByContact", ctx, "karim@example.com", "", (*uuid.UUID)(nil)).Return(true, nil)

		_, err := svc.Add(ctx, tenantID, AddMemberRequest{Name: "Karim", Email: "karim@example.com"})
		assert.ErrorIs(t, err, ErrContactTaken)
		members.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("login without email", func(t *testing.T) {
		members := new(MockMemberRepository)
		svc := NewMemberService(members, new(MockAccountRepository), nil, zaptest.NewLogger(t))
		members.On("ExistsByContact", ctx, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)

		_, err := svc.Add(ctx, tenantID, AddMemberRequest{Name: "Guest", Phone: "01711000000", Password: "passw0rd"})
		assert.Equal(t, "EMAIL_REQUIRED", shared.ErrorCode(err))
	})
}

func TestMemberService_Update(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	members := new(MockMemberRepository)
	svc := NewMemberService(members, new(MockAccountRepository), nil, zaptest.NewLogger(t))
	m := newMember(t, tenantID, "Karim", "karim@example.com")

	members.On("FindByIDForTenant", ctx, tenantID, m.ID).Return(m, nil)
	members.On("ExistsByContact", ctx, "k2@example.com", "", &m.ID).Return(false, nil)
	members.On("Save", ctx, m).Return(nil)

	resp, err := svc.Update(ctx, tenantID, m.ID, UpdateMemberRequest{Name: "Karim Uddin", Email: "K2@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Karim Uddin", resp.Name)
	assert.Equal(t, "k2@example.com", resp.Email)
}

func TestMemberService_PromoteSyncsLoginRole(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	members, accounts := new(MockMemberRepository), new(MockAccountRepository)
	svc := NewMemberService(members, accounts, nil, zaptest.NewLogger(t))
	m := newMember(t, tenantID, "Karim", "karim@example.com")
	account, err := identity.NewMemberAccount(m.Email, "passw0rd", identity.RoleMember, tenantID, m.ID)
	require.NoError(t, err)

	members.On("FindByIDForTenant", ctx, tenantID, m.ID).Return(m, nil)
	members.On("Save", ctx, m).Return(nil)
	accounts.On("FindByMemberID", ctx, m.ID).Return(account, nil)
	accounts.On("Save", ctx, account).Return(nil)

	resp, err := svc.Promote(ctx, tenantID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "manager", resp.Role)
	assert.Equal(t, identity.RoleManager, account.Role)
	accounts.AssertExpectations(t)
}

func TestMemberService_PromoteWithoutLogin(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	members, accounts := new(MockMemberRepository), new(MockAccountRepository)
	svc := NewMemberService(members, accounts, nil, zaptest.NewLogger(t))
	m := newMember(t, tenantID, "Karim", "karim@example.com")

	members.On("FindByIDForTenant", ctx, tenantID, m.ID).Return(m, nil)
	members.On("Save", ctx, m).Return(nil)
	accounts.On("FindByMemberID", ctx, m.ID).Return(nil, shared.ErrNotFound)

	_, err := svc.Promote(ctx, tenantID, m.ID)
	require.NoError(t, err)
	accounts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestMemberService_LastManagerIsKept(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	members := new(MockMemberRepository)
	svc := NewMemberService(members, new(MockAccountRepository), nil, zaptest.NewLogger(t))
	m := newMember(t, tenantID, "Rahim", "rahim@example.com")
	require.NoError(t, m.PromoteToManager())

	members.On("FindByIDForTenant", ctx, tenantID, m.ID).Return(m, nil)
	members.On("ListManagers", ctx, tenantID).Return([]mess.Member{*m}, nil)

	_, err := svc.Demote(ctx, tenantID, m.ID)
	assert.Equal(t, "LAST_MANAGER", shared.ErrorCode(err))

	_, err = svc.Deactivate(ctx, tenantID, m.ID)
	assert.Equal(t, "LAST_MANAGER", shared.ErrorCode(err))
	members.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestMemberService_DeactivateAndList(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	members := new(MockMemberRepository)
	svc := NewMemberService(members, new(MockAccountRepository), nil, zaptest.NewLogger(t))
	m := newMember(t, tenantID, "Karim", "karim@example.com")

	members.On("FindByIDForTenant", ctx, tenantID, m.ID).Return(m, nil)
	members.On("Save", ctx, m).Return(nil)

	resp, err := svc.Deactivate(ctx, tenantID, m.ID)
	require.NoError(t, err)
	assert.False(t, resp.IsActive)

	_, err = svc.Deactivate(ctx, tenantID, m.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	active := false
	members.On("FindAllForTenant", ctx, tenantID, mock.MatchedBy(func(f mess.MemberFilter) bool {
		return f.Active != nil && !*f.Active && f.OrderBy == "name" && f.PageSize == 50
	})).Return([]mess.Member{*m}, int64(1), nil)

	page, err := svc.List(ctx, tenantID, MemberListFilter{Active: &active})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}
