package repository

import (
	"context"

	"radar/internal/models"

	"gorm.io/gorm"
)

type PrivacyRepository struct {
	db *gorm.DB
}

func NewPrivacyRepository(db *gorm.DB) *PrivacyRepository {
	return &PrivacyRepository{db: db}
}

func (r *PrivacyRepository) GetByUserID(ctx context.Context, userID string) (*models.PrivacySettings, error) {
	var p models.PrivacySettings
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// Create inserts new settings; a concurrent insert for the same user yields ErrConflict.
func (r *PrivacyRepository) Create(ctx context.Context, p *models.PrivacySettings) error {
	return translate(r.db.WithContext(ctx).Omit("User").Create(p).Error)
}

// Save updates every column of an existing row (or inserts when ID is zero).
func (r *PrivacyRepository) Save(ctx context.Context, p *models.PrivacySettings) error {
	return translate(r.db.WithContext(ctx).Omit("User").Save(p).Error)
}
