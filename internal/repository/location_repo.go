package repository

import (
	"context"

	"radar/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LocationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// Upsert writes the user's single location row, replacing the previous position.
func (r *LocationRepository) Upsert(ctx context.Context, loc *models.UserLocation) error {
	return translate(r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"latitude", "longitude", "accuracy", "is_active", "last_seen", "updated_at",
		}),
	}).Omit("User").Create(loc).Error)
}

// GetByUserID returns the location with its owner preloaded.
func (r *LocationRepository) GetByUserID(ctx context.Context, userID string) (*models.UserLocation, error) {
	var loc models.UserLocation
	err := r.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&loc).Error
	if err != nil {
		return nil, translate(err)
	}
	return &loc, nil
}
