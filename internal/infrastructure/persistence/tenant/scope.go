// Package tenant provides mess (tenant) scoping for GORM queries.
//
// Every working-data table carries a tenant_id column. Repositories take the
// tenant explicitly and apply Scope; there is no implicit context lookup, so
// a worker rolling over many messes cannot leak one mess's rows into another.
//
//	db.WithContext(ctx).Scopes(tenant.Scope(tenantID)).Find(&meals)
package tenant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrTenantIDRequired is returned when a scoped query is built without a tenant
var ErrTenantIDRequired = errors.New("tenant_id is required")

// Scope filters by tenant_id. A nil tenant fails the query instead of
// silently matching nothing.
func Scope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return ScopeColumn("tenant_id", tenantID)
}

// ScopeColumn filters by a qualified tenant column, for joins
func ScopeColumn(column string, tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == uuid.Nil {
			_ = db.AddError(ErrTenantIDRequired)
			return db
		}
		return db.Where(column+" = ?", tenantID)
	}
}
