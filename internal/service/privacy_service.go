package service

import (
	"context"
	"errors"

	"radar/internal/domain"
	"radar/internal/models"
)

type PrivacyService struct {
	store PrivacyStore
}

func NewPrivacyService(store PrivacyStore) *PrivacyService {
	return &PrivacyService{store: store}
}

// PrivacyPatch carries a partial update; nil fields are left unchanged.
type PrivacyPatch struct {
	Visibility        *string
	ShowDistance      *bool
	ShowLastSeen      *bool
	AllowNearbySearch *bool
}

// GetOrCreateDefaults returns the user's settings, creating the defaults when none exist.
// created reports whether this call created them.
func (s *PrivacyService) GetOrCreateDefaults(ctx context.Context, userID string) (p *models.PrivacySettings, created bool, err error) {
	if userID == "" {
		return nil, false, domain.InvalidArgument("userId is required")
	}
	p, err = s.store.GetByUserID(ctx, userID)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, storage(err)
	}
	p = models.DefaultPrivacySettings(userID)
	err = s.store.Create(ctx, p)
	if errors.Is(err, domain.ErrConflict) {
		// someone else created them between our read and insert
		p, err = s.store.GetByUserID(ctx, userID)
		if err != nil {
			return nil, false, storage(named(err, "privacy settings"))
		}
		return p, false, nil
	}
	if err != nil {
		return nil, false, storage(named(err, "user"))
	}
	return p, true, nil
}

// Update applies patch on top of the current (or default) settings and stores the result.
func (s *PrivacyService) Update(ctx context.Context, userID string, patch PrivacyPatch) (*models.PrivacySettings, error) {
	if userID == "" {
		return nil, domain.InvalidArgument("userId is required")
	}
	var visibility string
	if patch.Visibility != nil {
		v, ok := domain.NormalizeVisibility(*patch.Visibility)
		if !ok {
			return nil, domain.InvalidArgument("visibility must be one of PUBLIC, FRIENDS, PRIVATE")
		}
		visibility = v
	}
	p, _, err := s.GetOrCreateDefaults(ctx, userID)
	if err != nil {
		return nil, err
	}
	if patch.Visibility != nil {
		p.Visibility = visibility
	}
	if patch.ShowDistance != nil {
		p.ShowDistance = *patch.ShowDistance
	}
	if patch.ShowLastSeen != nil {
		p.ShowLastSeen = *patch.ShowLastSeen
	}
	if patch.AllowNearbySearch != nil {
		p.AllowNearbySearch = *patch.AllowNearbySearch
	}
	if err := s.store.Save(ctx, p); err != nil {
		return nil, storage(named(err, "user"))
	}
	return p, nil
}
