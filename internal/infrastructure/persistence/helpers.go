package persistence

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/messmate/backend/internal/domain/shared"
	"github.com/messmate/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// notFound maps gorm's record-not-found to the domain sentinel
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// isDuplicate reports a unique constraint violation. It relies on
// gorm.Config.TranslateError; the message check covers raw driver errors.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") || strings.Contains(msg, "UNIQUE constraint failed")
}

// lockTenant takes a row lock on the mess. Ledger writes take a share lock,
// the rollover an update lock, so the two serialize per mess.
func lockTenant(tx *gorm.DB, tenantID uuid.UUID, strength string) error {
	var m models.MessModel
	err := tx.Clauses(clause.Locking{Strength: strength}).
		Select("id").
		Where("id = ?", tenantID).
		Take(&m).Error
	return notFound(err)
}

// likePattern escapes LIKE wildcards in user search input
func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(strings.TrimSpace(search))) + "%"
}
