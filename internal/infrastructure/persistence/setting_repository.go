package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/invoicing/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSettingRepository implements invoice.SettingRepository using GORM.
type GormSettingRepository struct {
	db *gorm.DB
}

// NewGormSettingRepository creates a new GormSettingRepository
func NewGormSettingRepository(db *gorm.DB) *GormSettingRepository {
	return &GormSettingRepository{db: db}
}

// Get returns the stored value for the key, or "" when the key is
// absent. Absence is not an error.
func (r *GormSettingRepository) Get(ctx context.Context, key string) (string, error) {
	var row models.SettingModel
	if err := r.db.WithContext(ctx).
		First(&row, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read setting %q: %w", key, err)
	}
	return row.Value, nil
}

// Put upserts the value for the key. Writing an existing key replaces
// its value.
func (r *GormSettingRepository) Put(ctx context.Context, key, value string) error {
	row := models.SettingModel{Key: key, Value: value}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&row).Error; err != nil {
		return fmt.Errorf("failed to write setting %q: %w", key, err)
	}
	return nil
}
