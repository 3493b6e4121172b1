package service

import (
	"context"
	"errors"
	"time"

	"radar/internal/domain"
	"radar/internal/models"
	"radar/internal/repository"
)

// Storage contracts. The gorm repositories and the memory store both satisfy them.
type (
	UserStore interface {
		CreateWithPrivacy(ctx context.Context, u *models.User, p *models.PrivacySettings) error
		GetByID(ctx context.Context, id string) (*models.User, error)
		UpdateAvatar(ctx context.Context, id, avatar string) error
	}

	LocationStore interface {
		Upsert(ctx context.Context, loc *models.UserLocation) error
		GetByUserID(ctx context.Context, userID string) (*models.UserLocation, error)
	}

	PrivacyStore interface {
		GetByUserID(ctx context.Context, userID string) (*models.PrivacySettings, error)
		Create(ctx context.Context, p *models.PrivacySettings) error
		Save(ctx context.Context, p *models.PrivacySettings) error
	}

	CandidateStore interface {
		Candidates(ctx context.Context, f repository.CandidateFilter) ([]models.User, error)
	}
)

func utcNow() time.Time { return time.Now().UTC() }

// named replaces a bare ErrNotFound with one naming the missing entity.
func named(err error, what string) error {
	if err == domain.ErrNotFound {
		return domain.NotFound(what)
	}
	return err
}

// storage makes sure anything unexpected coming out of a store matches ErrStorage.
func storage(err error) error {
	if err == nil ||
		errors.Is(err, domain.ErrStorage) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrInvalidArgument) {
		return err
	}
	return domain.StorageError(err)
}
