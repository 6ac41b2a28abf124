package persistence

import (
	"strings"

	"github.com/messmate/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField if it is whitelisted, otherwise defaultField
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// MessSortFields contains allowed sort fields for messes
var MessSortFields = map[string]bool{
	"created_at":     true,
	"updated_at":     true,
	"code":           true,
	"name":           true,
	"status":         true,
	"current_period": true,
}

// MemberSortFields contains allowed sort fields for members
var MemberSortFields = map[string]bool{
	"created_at": true,
	"name":       true,
	"joined_at":  true,
	"role":       true,
	"is_active":  true,
}

// LedgerSortFields contains allowed sort fields for meal, bazar, deposit and additional cost rows
var LedgerSortFields = map[string]bool{
	"created_at": true,
	"date":       true,
}

// AmountSortFields extends LedgerSortFields for rows that carry an amount
var AmountSortFields = map[string]bool{
	"created_at": true,
	"date":       true,
	"amount":     true,
}

// ArchiveSortFields contains allowed sort fields for settlement archives
var ArchiveSortFields = map[string]bool{
	"period":      true,
	"archived_at": true,
	"meal_rate":   true,
}

// paginate applies a validated ORDER BY plus LIMIT/OFFSET from filter
func paginate(filter shared.Filter, allowed map[string]bool, defaultField string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		field := ValidateSortField(filter.OrderBy, allowed, defaultField)
		return db.Order(field + " " + ValidateSortOrder(filter.OrderDir)).
			Offset(filter.Offset()).
			Limit(filter.Limit())
	}
}
