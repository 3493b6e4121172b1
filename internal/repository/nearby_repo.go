package repository

import (
	"context"
	"time"

	"radar/internal/domain"
	"radar/internal/models"
	"radar/pkg/location"

	"gorm.io/gorm"
)

// CandidateFilter holds the static predicates a store can apply before distances are
// computed. Stores may return a superset; the nearby service re-checks everything.
type CandidateFilter struct {
	ExcludeUserID string
	SeenAfter     time.Time
	Box           location.Box
	Limit         int
}

// NearbyRepository loads nearby-search candidates.
type NearbyRepository struct {
	db *gorm.DB
}

func NewNearbyRepository(db *gorm.DB) *NearbyRepository {
	return &NearbyRepository{db: db}
}

// Candidates returns users with an active, fresh location inside the filter box whose
// privacy settings allow nearby search (or who have no settings yet). Location and
// Privacy are preloaded; freshest locations come first when the limit cuts the set.
func (r *NearbyRepository) Candidates(ctx context.Context, f CandidateFilter) ([]models.User, error) {
	if f.Limit <= 0 {
		f.Limit = domain.DefaultCandidateCap
	}
	query := r.db.WithContext(ctx).Model(&models.User{}).
		Select("users.*").
		Joins("INNER JOIN user_locations ul ON ul.user_id = users.id AND ul.deleted_at IS NULL").
		Joins("LEFT JOIN privacy_settings ps ON ps.user_id = users.id AND ps.deleted_at IS NULL").
		Where("ul.is_active = ? AND ul.last_seen >= ?", true, f.SeenAfter).
		Where("(ps.id IS NULL OR (ps.allow_nearby_search = ? AND ps.visibility <> ?))", true, domain.VisibilityPrivate).
		Where("ul.latitude BETWEEN ? AND ?", f.Box.MinLat, f.Box.MaxLat)

	if !f.Box.AllLongitudes {
		query = query.Where("ul.longitude BETWEEN ? AND ?", f.Box.MinLng, f.Box.MaxLng)
	}
	if f.ExcludeUserID != "" {
		query = query.Where("users.id <> ?", f.ExcludeUserID)
	}

	var users []models.User
	err := query.
		Preload("Location").
		Preload("Privacy").
		Order("ul.last_seen DESC").
		Limit(f.Limit).
		Find(&users).Error
	if err != nil {
		return nil, translate(err)
	}
	return users, nil
}
