package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/mess"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/messmate/backend/internal/infrastructure/persistence/models"
	"github.com/messmate/backend/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrMealRecordExists is returned when a second meal row is written for the same member and day
var ErrMealRecordExists = shared.NewDomainError("ALREADY_EXISTS", "Meal record already exists for this member and day")

// ledgerTx runs a working-data write under a share lock on the mess row, so
// it waits for a running rollover and a rollover waits for it.
func ledgerTx(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTenant(tx, tenantID, clause.LockingStrengthShare); err != nil {
			return err
		}
		return fn(tx)
	})
}

// ledgerWriteTx is ledgerTx for inserts and updates. Status and period are
// read again under the lock and the write is rejected unless date falls in the
// period that is open now.
func ledgerWriteTx(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, date time.Time, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.MessModel
		err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthShare}).
			Select("id", "status", "current_period").
			Where("id = ?", tenantID).
			Take(&row).Error
		if err != nil {
			return notFound(err)
		}
		period, err := mess.ParsePeriod(row.CurrentPeriod)
		if err != nil {
			return fmt.Errorf("mess %s has invalid period %q: %w", tenantID, row.CurrentPeriod, err)
		}
		open := mess.Mess{Status: row.Status, CurrentPeriod: period}
		if err := open.CheckEntry(date); err != nil {
			return err
		}
		return fn(tx)
	})
}

// ledgerDelete removes one tenant-owned row and reports ErrNotFound when nothing matched
func ledgerDelete(ctx context.Context, db *gorm.DB, tenantID, id uuid.UUID, model any) error {
	return ledgerTx(ctx, db, tenantID, func(tx *gorm.DB) error {
		result := tx.Scopes(tenant.Scope(tenantID)).Where("id = ?", id).Delete(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// ledgerScope applies the member and date range filters
func ledgerScope(tenantID uuid.UUID, filter mess.LedgerFilter, hasMember bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(tenant.Scope(tenantID))
		if hasMember && filter.MemberID != nil {
			db = db.Where("member_id = ?", *filter.MemberID)
		}
		if filter.From != nil {
			db = db.Where("date >= ?", mess.CalendarDay(*filter.From))
		}
		if filter.To != nil {
			db = db.Where("date <= ?", mess.CalendarDay(*filter.To))
		}
		return db
	}
}

// GormMealRecordRepository implements mess.MealRecordRepository using GORM
type GormMealRecordRepository struct {
	db *gorm.DB
}

// NewGormMealRecordRepository creates a new GormMealRecordRepository
func NewGormMealRecordRepository(db *gorm.DB) *GormMealRecordRepository {
	return &GormMealRecordRepository{db: db}
}

// FindByIDForTenant finds a meal record of one mess
func (r *GormMealRecordRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*mess.MealRecord, error) {
	var model models.MealRecordModel
	if err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByMemberAndDate finds the meal record of a member for one calendar day
func (r *GormMealRecordRepository) FindByMemberAndDate(ctx context.Context, tenantID, memberID uuid.UUID, date time.Time) (*mess.MealRecord, error) {
	var model models.MealRecordModel
	if err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).
		Where("member_id = ? AND date = ?", memberID, mess.CalendarDay(date)).
		First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists the meal records of a mess
func (r *GormMealRecordRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter mess.LedgerFilter) ([]mess.MealRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MealRecordModel{}).Scopes(ledgerScope(tenantID, filter, true))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.MealRecordModel
	if err := query.Scopes(paginate(filter.Filter, LedgerSortFields, "date")).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]mess.MealRecord, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Save creates or updates a meal record
func (r *GormMealRecordRepository) Save(ctx context.Context, rec *mess.MealRecord) error {
	err := ledgerWriteTx(ctx, r.db, rec.TenantID, rec.Date, func(tx *gorm.DB) error {
		return tx.Save(models.MealRecordModelFromDomain(rec)).Error
	})
	if isDuplicate(err) {
		return ErrMealRecordExists
	}
	return err
}

// DeleteForTenant removes a meal record
func (r *GormMealRecordRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return ledgerDelete(ctx, r.db, tenantID, id, &models.MealRecordModel{})
}

// GormBazarRepository implements mess.BazarRepository using GORM
type GormBazarRepository struct {
	db *gorm.DB
}

// NewGormBazarRepository creates a new GormBazarRepository
func NewGormBazarRepository(db *gorm.DB) *GormBazarRepository {
	return &GormBazarRepository{db: db}
}

func (r *GormBazarRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*mess.BazarPurchase, error) {
	var model models.BazarPurchaseModel
	if err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists purchases. MemberID filters by purchaser.
func (r *GormBazarRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter mess.LedgerFilter) ([]mess.BazarPurchase, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BazarPurchaseModel{}).Scopes(ledgerScope(tenantID, filter, false))
	if filter.MemberID != nil {
		query = query.Where("purchaser_id = ?", *filter.MemberID)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(description) LIKE ?", likePattern(filter.Search))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.BazarPurchaseModel
	if err := query.Scopes(paginate(filter.Filter, AmountSortFields, "date")).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]mess.BazarPurchase, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

func (r *GormBazarRepository) Save(ctx context.Context, p *mess.BazarPurchase) error {
	return ledgerWriteTx(ctx, r.db, p.TenantID, p.Date, func(tx *gorm.DB) error {
		return tx.Save(models.BazarPurchaseModelFromDomain(p)).Error
	})
}

func (r *GormBazarRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return ledgerDelete(ctx, r.db, tenantID, id, &models.BazarPurchaseModel{})
}

// GormDepositRepository implements mess.DepositRepository using GORM
type GormDepositRepository struct {
	db *gorm.DB
}

// NewGormDepositRepository creates a new GormDepositRepository
func NewGormDepositRepository(db *gorm.DB) *GormDepositRepository {
	return &GormDepositRepository{db: db}
}

func (r *GormDepositRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*mess.Deposit, error) {
	var model models.DepositModel
	if err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

func (r *GormDepositRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter mess.LedgerFilter) ([]mess.Deposit, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.DepositModel{}).Scopes(ledgerScope(tenantID, filter, true))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.DepositModel
	if err := query.Scopes(paginate(filter.Filter, AmountSortFields, "date")).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]mess.Deposit, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

func (r *GormDepositRepository) Save(ctx context.Context, d *mess.Deposit) error {
	return ledgerWriteTx(ctx, r.db, d.TenantID, d.Date, func(tx *gorm.DB) error {
		return tx.Save(models.DepositModelFromDomain(d)).Error
	})
}

func (r *GormDepositRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return ledgerDelete(ctx, r.db, tenantID, id, &models.DepositModel{})
}

// GormAdditionalCostRepository implements mess.AdditionalCostRepository using GORM
type GormAdditionalCostRepository struct {
	db *gorm.DB
}

// NewGormAdditionalCostRepository creates a new GormAdditionalCostRepository
func NewGormAdditionalCostRepository(db *gorm.DB) *GormAdditionalCostRepository {
	return &GormAdditionalCostRepository{db: db}
}

func (r *GormAdditionalCostRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*mess.AdditionalCost, error) {
	var model models.AdditionalCostModel
	if err := r.db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

func (r *GormAdditionalCostRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter mess.LedgerFilter) ([]mess.AdditionalCost, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AdditionalCostModel{}).Scopes(ledgerScope(tenantID, filter, false))
	if filter.Search != "" {
		query = query.Where("LOWER(description) LIKE ?", likePattern(filter.Search))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.AdditionalCostModel
	if err := query.Scopes(paginate(filter.Filter, AmountSortFields, "date")).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]mess.AdditionalCost, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

func (r *GormAdditionalCostRepository) Save(ctx context.Context, c *mess.AdditionalCost) error {
	return ledgerWriteTx(ctx, r.db, c.TenantID, c.Date, func(tx *gorm.DB) error {
		return tx.Save(models.AdditionalCostModelFromDomain(c)).Error
	})
}

func (r *GormAdditionalCostRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return ledgerDelete(ctx, r.db, tenantID, id, &models.AdditionalCostModel{})
}
