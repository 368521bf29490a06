package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

// referenceGuard blocks a guarded-hard delete while rows of model point at the entity.
type referenceGuard struct {
	model   interface{}
	column  string
	message string
}

// applyDeletion deletes the entity with the given id according to its DeletionPolicy.
// entity must be a pointer to a zero model value.
func applyDeletion(ctx context.Context, db *gorm.DB, entity models.Deletable, name string, id uint, guards ...referenceGuard) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(entity, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NotFound("%s not found", name)
			}
			return Internal(err, "failed to load %s", name)
		}

		switch entity.DeletionPolicy() {
		case models.DeletionSoft:
			if err := tx.Model(entity).Update("status", 0).Error; err != nil {
				return Internal(err, "failed to deactivate %s", name)
			}
			return nil

		case models.DeletionGuardedHard:
			for _, g := range guards {
				var count int64
				if err := tx.Model(g.model).Where(g.column+" = ?", id).Count(&count).Error; err != nil {
					return Internal(err, "failed to check references of %s", name)
				}
				if count > 0 {
					return Conflict("%s", g.message)
				}
			}
			if err := tx.Delete(entity).Error; err != nil {
				return Internal(err, "failed to delete %s", name)
			}
			return nil

		default:
			return Internal(nil, "unknown deletion policy %s for %s", entity.DeletionPolicy(), name)
		}
	})
}
