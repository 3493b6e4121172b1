package repository

import (
	"context"

	"radar/internal/domain"
	"radar/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateWithPrivacy inserts the user and its privacy settings in one transaction.
func (r *UserRepository) CreateWithPrivacy(ctx context.Context, u *models.User, p *models.PrivacySettings) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Location", "Privacy").Create(u).Error; err != nil {
			return err
		}
		p.UserID = u.ID
		return tx.Create(p).Error
	})
	return translate(err)
}

// GetByID returns the user with its location and privacy settings preloaded.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).
		Preload("Location").
		Preload("Privacy").
		First(&u, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id, avatar string) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("avatar", avatar)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("user")
	}
	return nil
}
