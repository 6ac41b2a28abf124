package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	appidentity "github.com/messmate/backend/internal/application/identity"
	appmess "github.com/messmate/backend/internal/application/mess"
	appmessaging "github.com/messmate/backend/internal/application/messaging"
	appsettlement "github.com/messmate/backend/internal/application/settlement"
	"github.com/messmate/backend/internal/domain/identity"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/domain/messaging"
	"github.com/messmate/backend/internal/domain/shared"
)

// The interfaces below are the slices of the application services each
// handler calls. The application structs satisfy them directly.

// AuthService authenticates accounts
type AuthService interface {
	Login(ctx context.Context, input appidentity.LoginInput) (*appidentity.LoginResult, error)
	RefreshToken(ctx context.Context, input appidentity.RefreshTokenInput) (*appidentity.TokenResult, error)
	Logout(ctx context.Context, input appidentity.LogoutInput) error
	Me(ctx context.Context, session identity.Session) (*appidentity.AccountInfo, error)
	ChangePassword(ctx context.Context, session identity.Session, input appidentity.ChangePasswordInput) error
}

// MessService administers messes
type MessService interface {
	Create(ctx context.Context, req appmess.CreateMessRequest) (*appmess.MessCreatedResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*appmess.MessResponse, error)
	List(ctx context.Context, filter appmess.MessListFilter) (*shared.Paginated[appmess.MessResponse], error)
	Update(ctx context.Context, id uuid.UUID, req appmess.UpdateMessRequest) (*appmess.MessResponse, error)
	Activate(ctx context.Context, id uuid.UUID) (*appmess.MessResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*appmess.MessResponse, error)
	Suspend(ctx context.Context, id uuid.UUID) (*appmess.MessResponse, error)
}

// MemberService manages the roster of a mess
type MemberService interface {
	Add(ctx context.Context, tenantID uuid.UUID, req appmess.AddMemberRequest) (*appmess.MemberResponse, error)
	GetByID(ctx context.Context, tenantID, memberID uuid.UUID) (*appmess.MemberResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, filter appmess.MemberListFilter) (*shared.Paginated[appmess.MemberResponse], error)
	Update(ctx context.Context, tenantID, memberID uuid.UUID, req appmess.UpdateMemberRequest) (*appmess.MemberResponse, error)
	Activate(ctx context.Context, tenantID, memberID uuid.UUID) (*appmess.MemberResponse, error)
	Deactivate(ctx context.Context, tenantID, memberID uuid.UUID) (*appmess.MemberResponse, error)
	Promote(ctx context.Context, tenantID, memberID uuid.UUID) (*appmess.MemberResponse, error)
	Demote(ctx context.Context, tenantID, memberID uuid.UUID) (*appmess.MemberResponse, error)
}

// LedgerService records the working data of the current period
type LedgerService interface {
	RecordMeals(ctx context.Context, tenantID uuid.UUID, req appmess.RecordMealsRequest) (*appmess.MealRecordResponse, error)
	ListMeals(ctx context.Context, tenantID uuid.UUID, filter appmess.LedgerListFilter) (*shared.Paginated[appmess.MealRecordResponse], error)
	DeleteMeals(ctx context.Context, tenantID, id uuid.UUID) error

	AddBazar(ctx context.Context, tenantID uuid.UUID, req appmess.AddBazarRequest) (*appmess.BazarResponse, error)
	ListBazar(ctx context.Context, tenantID uuid.UUID, filter appmess.LedgerListFilter) (*shared.Paginated[appmess.BazarResponse], error)
	DeleteBazar(ctx context.Context, tenantID, id uuid.UUID) error

	AddDeposit(ctx context.Context, tenantID uuid.UUID, req appmess.AddDepositRequest) (*appmess.DepositResponse, error)
	ListDeposits(ctx context.Context, tenantID uuid.UUID, filter appmess.LedgerListFilter) (*shared.Paginated[appmess.DepositResponse], error)
	DeleteDeposit(ctx context.Context, tenantID, id uuid.UUID) error

	AddAdditionalCost(ctx context.Context, tenantID uuid.UUID, req appmess.AddAdditionalCostRequest) (*appmess.AdditionalCostResponse, error)
	ListAdditionalCosts(ctx context.Context, tenantID uuid.UUID, filter appmess.LedgerListFilter) (*shared.Paginated[appmess.AdditionalCostResponse], error)
	DeleteAdditionalCost(ctx context.Context, tenantID, id uuid.UUID) error
}

// BalanceService computes live balances
type BalanceService interface {
	Statement(ctx context.Context, tenantID uuid.UUID) (*appmess.BalanceResponse, error)
	MemberBalance(ctx context.Context, tenantID, memberID uuid.UUID) (*appmess.MemberBalanceResponse, error)
}

// RolloverService closes periods on demand
type RolloverService interface {
	ResolveTarget(requested string) (mess.Period, error)
	RunAll(ctx context.Context, target mess.Period, trigger string) (*appsettlement.BatchResult, error)
	RolloverTenant(ctx context.Context, tenantID uuid.UUID, target mess.Period) appsettlement.TenantResult
}

// ArchiveService reads closed periods
type ArchiveService interface {
	ListArchives(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (*shared.Paginated[appsettlement.ArchiveSummary], error)
	GetArchive(ctx context.Context, tenantID uuid.UUID, period mess.Period) (*appsettlement.ArchiveResponse, error)
	GetMemberHistory(ctx context.Context, tenantID, memberID uuid.UUID) ([]appsettlement.MemberHistoryEntry, error)
	ExportLink(ctx context.Context, tenantID uuid.UUID, period mess.Period) (*appsettlement.ExportLink, error)
}

// MessageService sends and lists messages
type MessageService interface {
	Send(ctx context.Context, session identity.Session, req appmessaging.SendMessageRequest) (*appmessaging.SendResult, error)
	Inbox(ctx context.Context, session identity.Session, unreadOnly bool, filter shared.Filter) (*shared.Paginated[messaging.InboxItem], error)
	MarkRead(ctx context.Context, session identity.Session, deliveryID uuid.UUID) error
}

// HealthChecker is a dependency probed by the readiness endpoint
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthChecker
type HealthCheckFunc func(ctx context.Context) error

// Ping calls f
func (f HealthCheckFunc) Ping(ctx context.Context) error { return f(ctx) }

const healthCheckTimeout = 2 * time.Second
