package mess

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/settlement"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MessFilter defines filtering options for mess queries
type MessFilter struct {
	shared.Filter
	Status *MessStatus
}

// MessRepository persists messes (tenants)
type MessRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Mess, error)
	FindByCode(ctx context.Context, code string) (*Mess, error)
	FindAll(ctx context.Context, filter MessFilter) ([]Mess, int64, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// ListActiveIDs returns the IDs of every active mess, ordered by creation
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)

	Save(ctx context.Context, m *Mess) error

	// SaveWithLock saves only if the stored version is m.Version-1
	SaveWithLock(ctx context.Context, m *Mess) error
}

// MemberFilter defines filtering options for member queries
type MemberFilter struct {
	shared.Filter
	Active *bool
	Role   *MemberRole
}

// MemberRepository persists members
type MemberRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Member, error)
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Member, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter MemberFilter) ([]Member, int64, error)

	// ListRoster returns every member of the tenant, active or not, oldest first
	ListRoster(ctx context.Context, tenantID uuid.UUID) ([]Member, error)

	// ListManagers returns the active managers of the tenant
	ListManagers(ctx context.Context, tenantID uuid.UUID) ([]Member, error)

	// ExistsByContact reports whether another member, in any mess, already uses
	// the email or phone. excludeID skips the member being updated.
	ExistsByContact(ctx context.Context, email, phone string, excludeID *uuid.UUID) (bool, error)

	Save(ctx context.Context, m *Member) error
}

// LedgerFilter narrows working-data listings
type LedgerFilter struct {
	shared.Filter
	MemberID *uuid.UUID
	From     *time.Time
	To       *time.Time
}

// MealRecordRepository persists daily meal counts
type MealRecordRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*MealRecord, error)
	FindByMemberAndDate(ctx context.Context, tenantID, memberID uuid.UUID, date time.Time) (*MealRecord, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter LedgerFilter) ([]MealRecord, int64, error)
	Save(ctx context.Context, r *MealRecord) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}

// BazarRepository persists shared grocery purchases
type BazarRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*BazarPurchase, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter LedgerFilter) ([]BazarPurchase, int64, error)
	Save(ctx context.Context, p *BazarPurchase) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}

// DepositRepository persists member deposits
type DepositRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Deposit, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter LedgerFilter) ([]Deposit, int64, error)
	Save(ctx context.Context, d *Deposit) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}

// AdditionalCostRepository persists per-head shared costs
type AdditionalCostRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*AdditionalCost, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter LedgerFilter) ([]AdditionalCost, int64, error)
	Save(ctx context.Context, c *AdditionalCost) error
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}

// ArchiveRepository reads settlement archives. Archives are written only
// through SettlementStore.
type ArchiveRepository interface {
	FindByPeriod(ctx context.Context, tenantID uuid.UUID, period Period) (*SettlementArchive, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]SettlementArchive, int64, error)

	// FindMemberHistory returns the archived lines of one member, newest period first
	FindMemberHistory(ctx context.Context, tenantID, memberID uuid.UUID) ([]MemberPeriodLine, error)
}

// MemberPeriodLine is one member line together with the period it belongs to
type MemberPeriodLine struct {
	Period   Period
	MealRate decimal.Decimal
	Line     MemberSettlement
}

// LedgerReader returns everything currently attributed to a tenant: all
// purchases, meals, deposits and additional costs plus the member roster.
type LedgerReader interface {
	LoadLedger(ctx context.Context, tenantID uuid.UUID) (settlement.Ledger, error)
}

// SettlementStore is the persistence boundary of the monthly rollover
type SettlementStore interface {
	LedgerReader

	// FindArchive returns the archive of (tenant, period) or shared.ErrNotFound
	FindArchive(ctx context.Context, tenantID uuid.UUID, period Period) (*SettlementArchive, error)

	// SaveArchive writes one archive. It returns ErrArchiveExists when an
	// archive for the same tenant and period is already stored.
	SaveArchive(ctx context.Context, a *SettlementArchive) error

	// ClearAndAdvance deletes every meal, purchase, deposit and additional-cost
	// row of the tenant and moves its period token from -> to.
	// It fails with ErrPeriodMismatch when the stored period is not from.
	ClearAndAdvance(ctx context.Context, tenantID uuid.UUID, from, to Period) (ClearedRows, error)

	// InTenantTx runs fn in one transaction holding an exclusive lock on the
	// tenant row. Ledger writes for the tenant block until it ends, so nothing
	// can be recorded between loading the ledger and clearing it. Any error
	// returned by fn rolls everything back.
	InTenantTx(ctx context.Context, tenantID uuid.UUID, fn func(tx SettlementStore) error) error
}

// ClearedRows counts what a rollover deleted
type ClearedRows struct {
	Meals           int64 `json:"meals"`
	Purchases       int64 `json:"purchases"`
	Deposits        int64 `json:"deposits"`
	AdditionalCosts int64 `json:"additional_costs"`
}

// Total is the number of deleted rows
func (c ClearedRows) Total() int64 {
	return c.Meals + c.Purchases + c.Deposits + c.AdditionalCosts
}

var (
	ErrArchiveExists  = shared.NewDomainError("ARCHIVE_EXISTS", "Settlement archive already exists for this period")
	ErrPeriodMismatch = shared.NewDomainError("PERIOD_MISMATCH", "Stored period does not match the period being closed")
)
