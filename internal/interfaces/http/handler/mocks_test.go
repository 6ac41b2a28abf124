package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appidentity "github.com/messmate/backend/internal/application/identity"
	appmess "github.com/messmate/backend/internal/application/mess"
	appmessaging "github.com/messmate/backend/internal/application/messaging"
	appsettlement "github.com/messmate/backend/internal/application/settlement"
	"github.com/messmate/backend/internal/domain/identity"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/domain/messaging"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/messmate/backend/internal/interfaces/http/dto"
	"github.com/messmate/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// ==================== Sessions ====================

type testSessions struct {
	tenantID uuid.UUID
	manager  identity.Session
	member   identity.Session
	admin    identity.Session
}

func newTestSessions() testSessions {
	tenantID := uuid.New()
	managerMember, memberMember := uuid.New(), uuid.New()
	return testSessions{
		tenantID: tenantID,
		manager: identity.Session{
			AccountID: uuid.New(), Email: "manager@mess.test", Role: identity.RoleManager,
			TenantID: &tenantID, MemberID: &managerMember,
		},
		member: identity.Session{
			AccountID: uuid.New(), Email: "member@mess.test", Role: identity.RoleMember,
			TenantID: &tenantID, MemberID: &memberMember,
		},
		admin: identity.Session{AccountID: uuid.New(), Email: "admin@mess.test", Role: identity.RoleSuperAdmin},
	}
}

// newRouter returns an engine that injects session (when non-nil) the way
// the JWT middleware does
func newRouter(session *identity.Session) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(func(c *gin.Context) {
		if session != nil {
			c.Set(middleware.SessionKey, *session)
		}
		c.Next()
	})
	return router
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func errorCodeOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := decode(t, w)
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code
}


// ==================== Auth ====================

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, input appidentity.LoginInput) (*appidentity.LoginResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appidentity.LoginResult), args.Error(1)
}

func (m *MockAuthService) RefreshToken(ctx context.Context, input appidentity.RefreshTokenInput) (*appidentity.TokenResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appidentity.TokenResult), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, input appidentity.LogoutInput) error {
	return m.Called(ctx, input).Error(0)
}

func (m *MockAuthService) Me(ctx context.Context, session identity.Session) (*appidentity.AccountInfo, error) {
	args := m.Called(ctx, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appidentity.AccountInfo), args.Error(1)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, session identity.Session, input appidentity.ChangePasswordInput) error {
	return m.Called(ctx, session, input).Error(0)
}

// ==================== Mess ====================

type MockMessService struct {
	mock.Mock
}

func (m *MockMessService) Create(ctx context.Context, req appmess.CreateMessRequest) (*appmess.MessCreatedResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmess.MessCreatedResponse), args.Error(1)
}

func (m *MockMessService) GetByID(ctx context.Context, id uuid.UUID) (*appmess.MessResponse, error) {
	return m.messResult(m.Called(ctx, id))
}

func (m *MockMessService) List(ctx context.Context, filter appmess.MessListFilter) (*shared.Paginated[appmess.MessResponse], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[appmess.MessResponse]), args.Error(1)
}

func (m *MockMessService) Update(ctx context.Context, id uuid.UUID, req appmess.UpdateMessRequest) (*appmess.MessResponse, error) {
	return m.messResult(m.Called(ctx, id, req))
}

func (m *MockMessService) Activate(ctx context.Context, id uuid.UUID) (*appmess.MessResponse, error) {
	return m.messResult(m.Called(ctx, id))
}

func (m *MockMessService) Deactivate(ctx context.Context, id uuid.UUID) (*appmess.MessResponse, error) {
	return m.messResult(m.Called(ctx, id))
}

func (m *MockMessService) Suspend(ctx context.Context, id uuid.UUID) (*appmess.MessResponse, error) {
	return m.messResult(m.Called(ctx, id))
}

func (m *MockMessService) messResult(args mock.Arguments) (*appmess.MessResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmess.MessResponse), args.Error(1)
}

// ==================== Members ====================

type MockMemberService struct {
	mock.Mock
}

func (m *MockMemberService) Add(ctx context.Context, tenantID uuid.UUID, req appmess.AddMemberRequest) (*appmess.MemberResponse, error) {
	return m.memberResult(m.Called(ctx, tenantID, req))
}

func (m *MockMemberService) GetByID(ctx context.Context, tenantID, memberID uuid.UUID) (*appmess.MemberResponse, error) {
	return m.memberResult(m.Called(ctx, tenantID, memberID))
}

func (m *MockMemberService) List(ctx context.Context, tenantID uuid.UUID, filter appmess.MemberListFilter) (*shared.Paginated[appmess.MemberResponse], error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[appmess.MemberResponse]), args.Error(1)
}

func (m *MockMemberService) Update(ctx context.Context, tenantID, memberID uuid.UUID, req appmess.UpdateMemberRequest) (*appmess.MemberResponse, error) {
	return m.memberResult(m.Called(ctx, tenantID, memberID, req))
}

func (m *MockMemberService) Activate(ctx context.Context, tenantID, memberID uuid.UUID) (*appmess.MemberResponse, error) {
	return m.memberResult(m.Called(ctx, tenantID, memberID))
}

func (m *MockMemberService) Deactivate(ctx context.Context, tenantID, memberID uuid.UUID) (*appmess.MemberResponse, error) {
	return m.memberResult(m.Called(ctx, tenantID, memberID))
}

func (m *MockMemberService) Promote(ctx context.Context, tenantID, memberID uuid.UUID) (*appmess.MemberResponse, error) {
	return m.memberResult(m.Called(ctx, tenantID, memberID))
}

func (m *MockMemberService) Demote(ctx context.Context, tenantID, memberID uuid.UUID) (*appmess.MemberResponse, error) {
	return m.memberResult(m.Called(ctx, tenantID, memberID))
}

func (m *MockMemberService) memberResult(args mock.Arguments) (*appmess.MemberResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmess.MemberResponse), args.Error(1)
}

// ==================== Ledger ====================

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) RecordMeals(ctx context.Context, tenantID uuid.UUID, req appmess.RecordMealsRequest) (*appmess.MealRecordResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmess.MealRecordResponse), args.Error(1)
}

func (m *MockLedgerService) ListMeals(ctx context.Context, tenantID uuid.UUID, filter appmess.LedgerListFilter) (*shared.Paginated[appmess.MealRecordResponse], error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[appmess.MealRecordResponse]), args.Error(1)
}

func (m *MockLedgerService) DeleteMeals(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockLedgerService) AddBazar(ctx context.Context, tenantID uuid.UUID, req appmess.AddBazarRequest) (*appmess.BazarResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmess.BazarResponse), args.Error(1)
}

func (m *MockLedgerService) ListBazar(ctx context.Context, tenantID uuid.UUID, filter appmess.LedgerListFilter) (*shared.Paginated[appmess.BazarResponse], error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[appmess.BazarResponse]), args.Error(1)
}

func (m *MockLedgerService) DeleteBazar(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockLedgerService) AddDeposit(ctx context.Context, tenantID uuid.UUID, req appmess.AddDepositRequest) (*appmess.DepositResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmess.DepositResponse), args.Error(1)
}

func (m *MockLedgerService) ListDeposits(ctx context.Context, tenantID uuid.UUID, filter appmess.LedgerListFilter) (*shared.Paginated[appmess.DepositResponse], error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[appmess.DepositResponse]), args.Error(1)
}

func (m *MockLedgerService) DeleteDeposit(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

func (m *MockLedgerService) AddAdditionalCost(ctx context.Context, tenantID uuid.UUID, req appmess.AddAdditionalCostRequest) (*appmess.AdditionalCostResponse, error) {
	args := m.Called(ctx, tenantID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmess.AdditionalCostResponse), args.Error(1)
}

func (m *MockLedgerService) ListAdditionalCosts(ctx context.Context, tenantID uuid.UUID, filter appmess.LedgerListFilter) (*shared.Paginated[appmess.AdditionalCostResponse], error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[appmess.AdditionalCostResponse]), args.Error(1)
}

func (m *MockLedgerService) DeleteAdditionalCost(ctx context.Context, tenantID, id uuid.UUID) error {
	return m.Called(ctx, tenantID, id).Error(0)
}

// ==================== Balances ====================

type MockBalanceService struct {
	mock.Mock
}

func (m *MockBalanceService) Statement(ctx context.Context, tenantID uuid.UUID) (*appmess.BalanceResponse, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmess.BalanceResponse), args.Error(1)
}

func (m *MockBalanceService) MemberBalance(ctx context.Context, tenantID, memberID uuid.UUID) (*appmess.MemberBalanceResponse, error) {
	args := m.Called(ctx, tenantID, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmess.MemberBalanceResponse), args.Error(1)
}

// ==================== Settlement ====================

type MockRolloverService struct {
	mock.Mock
}

func (m *MockRolloverService) ResolveTarget(requested string) (mess.Period, error) {
	args := m.Called(requested)
	return args.Get(0).(mess.Period), args.Error(1)
}

func (m *MockRolloverService) RunAll(ctx context.Context, target mess.Period, trigger string) (*appsettlement.BatchResult, error) {
	args := m.Called(ctx, target, trigger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appsettlement.BatchResult), args.Error(1)
}

func (m *MockRolloverService) RolloverTenant(ctx context.Context, tenantID uuid.UUID, target mess.Period) appsettlement.TenantResult {
	return m.Called(ctx, tenantID, target).Get(0).(appsettlement.TenantResult)
}

type MockArchiveService struct {
	mock.Mock
}

func (m *MockArchiveService) ListArchives(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[appsettlement.ArchiveSummary], error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[appsettlement.ArchiveSummary]), args.Error(1)
}

func (m *MockArchiveService) GetArchive(ctx context.Context, tenantID uuid.UUID, period mess.Period) (*appsettlement.ArchiveResponse, error) {
	args := m.Called(ctx, tenantID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appsettlement.ArchiveResponse), args.Error(1)
}

func (m *MockArchiveService) GetMemberHistory(ctx context.Context, tenantID, memberID uuid.UUID) ([]appsettlement.MemberHistoryEntry, error) {
	args := m.Called(ctx, tenantID, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]appsettlement.MemberHistoryEntry), args.Error(1)
}

func (m *MockArchiveService) ExportLink(ctx context.Context, tenantID uuid.UUID, period mess.Period) (*appsettlement.ExportLink, error) {
	args := m.Called(ctx, tenantID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appsettlement.ExportLink), args.Error(1)
}

// ==================== Messaging ====================

type MockMessageService struct {
	mock.Mock
}

func (m *MockMessageService) Send(ctx context.Context, session identity.Session, req appmessaging.SendMessageRequest) (*appmessaging.SendResult, error) {
	args := m.Called(ctx, session, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appmessaging.SendResult), args.Error(1)
}

func (m *MockMessageService) Inbox(ctx context.Context, session identity.Session, unreadOnly bool, filter shared.Filter) (*shared.Paginated[messaging.InboxItem], error) {
	args := m.Called(ctx, session, unreadOnly, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[messaging.InboxItem]), args.Error(1)
}

func (m *MockMessageService) MarkRead(ctx context.Context, session identity.Session, deliveryID uuid.UUID) error {
	return m.Called(ctx, session, deliveryID).Error(0)
}

// The application services satisfy the handler interfaces
var (
	_ AuthService     = (*appidentity.AuthService)(nil)
	_ MessService     = (*appmess.MessService)(nil)
	_ MemberService   = (*appmess.MemberService)(nil)
	_ LedgerService   = (*appmess.LedgerService)(nil)
	_ BalanceService  = (*appmess.BalanceService)(nil)
	_ RolloverService = (*appsettlement.RolloverService)(nil)
	_ ArchiveService  = (*appsettlement.ArchiveService)(nil)
	_ MessageService  = (*appmessaging.MessageService)(nil)
)
