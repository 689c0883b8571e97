package repositories

import (
	"errors"
	"fmt"

	"katalog/internal/domain"

	"gorm.io/gorm"
)

// translate maps GORM sentinel errors onto domain errors and wraps anything
// else with op for context.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// exists reports whether a row of model matches query.
func exists(tx *gorm.DB, model interface{}, query string, args ...interface{}) bool {
	var n int64
	if err := tx.Model(model).Where(query, args...).Count(&n).Error; err != nil {
		return false
	}
	return n > 0
}
