package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/domain/settlement"
	"github.com/messmate/backend/internal/infrastructure/persistence/models"
	"github.com/messmate/backend/internal/infrastructure/persistence/tenant"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSettlementStore implements mess.SettlementStore using GORM.
// Outside InTenantTx every method runs on its own; inside, they share the
// transaction that holds the mess row lock.
type GormSettlementStore struct {
	db *gorm.DB
}

// NewGormSettlementStore creates a new GormSettlementStore
func NewGormSettlementStore(db *gorm.DB) *GormSettlementStore {
	return &GormSettlementStore{db: db}
}

type memberUnits struct {
	MemberID uuid.UUID
	Units    int64
}

type memberAmount struct {
	MemberID uuid.UUID
	Amount   decimal.Decimal
}

// LoadLedger reads all working data of a mess plus its roster
func (s *GormSettlementStore) LoadLedger(ctx context.Context, tenantID uuid.UUID) (settlement.Ledger, error) {
	db := s.db.WithContext(ctx)
	ledger := settlement.Ledger{
		MealUnits: make(map[uuid.UUID]int64),
		Deposits:  make(map[uuid.UUID]decimal.Decimal),
	}

	if err := db.Model(&models.BazarPurchaseModel{}).Scopes(tenant.Scope(tenantID)).
		Order("date ASC, id ASC").
		Pluck("amount", &ledger.Purchases).Error; err != nil {
		return ledger, err
	}
	if err := db.Model(&models.AdditionalCostModel{}).Scopes(tenant.Scope(tenantID)).
		Order("date ASC, id ASC").
		Pluck("amount", &ledger.AdditionalCosts).Error; err != nil {
		return ledger, err
	}

	var units []memberUnits
	if err := db.Model(&models.MealRecordModel{}).Scopes(tenant.Scope(tenantID)).
		Select("member_id, SUM(breakfast + lunch + dinner) AS units").
		Group("member_id").
		Scan(&units).Error; err != nil {
		return ledger, err
	}
	for _, u := range units {
		ledger.MealUnits[u.MemberID] = u.Units
	}

	// summed in decimal, not SQL
	var deposits []memberAmount
	if err := db.Model(&models.DepositModel{}).Scopes(tenant.Scope(tenantID)).
		Select("member_id, amount").
		Scan(&deposits).Error; err != nil {
		return ledger, err
	}
	for _, d := range deposits {
		ledger.Deposits[d.MemberID] = ledger.Deposits[d.MemberID].Add(d.Amount)
	}

	var roster []models.MemberModel
	if err := db.Scopes(tenant.Scope(tenantID)).
		Select("id, name, is_active").
		Order("joined_at ASC, id ASC").
		Find(&roster).Error; err != nil {
		return ledger, err
	}
	ledger.Roster = make([]settlement.MemberInfo, len(roster))
	for i, m := range roster {
		ledger.Roster[i] = settlement.MemberInfo{ID: m.ID, Name: m.Name, Active: m.IsActive}
	}
	return ledger, nil
}

// FindArchive returns the stored archive of (tenant, period)
func (s *GormSettlementStore) FindArchive(ctx context.Context, tenantID uuid.UUID, period mess.Period) (*mess.SettlementArchive, error) {
	return findArchive(s.db.WithContext(ctx), tenantID, period)
}

// SaveArchive inserts an archive with its lines
func (s *GormSettlementStore) SaveArchive(ctx context.Context, a *mess.SettlementArchive) error {
	err := s.db.WithContext(ctx).Create(models.SettlementArchiveModelFromDomain(a)).Error
	if isDuplicate(err) {
		return mess.ErrArchiveExists
	}
	return err
}

// ClearAndAdvance deletes all working data of the mess and moves its period
// from -> to. The update only matches while the stored period is still from.
func (s *GormSettlementStore) ClearAndAdvance(ctx context.Context, tenantID uuid.UUID, from, to mess.Period) (mess.ClearedRows, error) {
	var cleared mess.ClearedRows
	db := s.db.WithContext(ctx)

	steps := []struct {
		model any
		count *int64
	}{
		{&models.MealRecordModel{}, &cleared.Meals},
		{&models.BazarPurchaseModel{}, &cleared.Purchases},
		{&models.DepositModel{}, &cleared.Deposits},
		{&models.AdditionalCostModel{}, &cleared.AdditionalCosts},
	}
	for _, step := range steps {
		result := db.Scopes(tenant.Scope(tenantID)).Delete(step.model)
		if result.Error != nil {
			return cleared, result.Error
		}
		*step.count = result.RowsAffected
	}

	result := db.Model(&models.MessModel{}).
		Where("id = ? AND current_period = ?", tenantID, from.String()).
		Updates(map[string]any{
			"current_period": to.String(),
			"version":        gorm.Expr("version + 1"),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return cleared, result.Error
	}
	if result.RowsAffected == 0 {
		return cleared, mess.ErrPeriodMismatch
	}
	return cleared, nil
}

// InTenantTx runs fn in a transaction that holds an update lock on the mess row
func (s *GormSettlementStore) InTenantTx(ctx context.Context, tenantID uuid.UUID, fn func(tx mess.SettlementStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTenant(tx, tenantID, clause.LockingStrengthUpdate); err != nil {
			return err
		}
		return fn(&GormSettlementStore{db: tx})
	})
}
