package service

import (
	"context"
	"time"

	"radar/internal/domain"
	"radar/internal/metrics"
	"radar/internal/models"
	"radar/pkg/location"
)

// LocationService ingests device positions. Each report overwrites the user's single
// location row and marks it active as of now.
type LocationService struct {
	store LocationStore
	now   func() time.Time
}

func NewLocationService(store LocationStore) *LocationService {
	return &LocationService{store: store, now: utcNow}
}

type ReportInput struct {
	UserID    string
	Latitude  *float64
	Longitude *float64
	Accuracy  *float64
}

// ReportLocation validates and upserts a position and returns the stored row.
// Retrying is safe: a user never has more than one location.
func (s *LocationService) ReportLocation(ctx context.Context, in ReportInput) (loc *models.UserLocation, err error) {
	defer func() { metrics.LocationReports.WithLabelValues(metrics.Result(err)).Inc() }()

	if in.UserID == "" || in.Latitude == nil || in.Longitude == nil {
		return nil, domain.InvalidArgument("userId, latitude, and longitude are required")
	}
	if !location.ValidCoordinate(*in.Latitude, *in.Longitude) {
		return nil, domain.InvalidArgument("latitude must be in [-90, 90] and longitude in [-180, 180]")
	}
	loc = &models.UserLocation{
		UserID:    in.UserID,
		Latitude:  *in.Latitude,
		Longitude: *in.Longitude,
		Accuracy:  in.Accuracy,
		IsActive:  true,
		LastSeen:  s.now(),
	}
	if err = s.store.Upsert(ctx, loc); err != nil {
		return nil, storage(named(err, "user"))
	}
	loc, err = s.store.GetByUserID(ctx, in.UserID)
	if err != nil {
		return nil, storage(err)
	}
	return loc, nil
}

// GetLocation returns the user's last reported location with the owner preloaded.
func (s *LocationService) GetLocation(ctx context.Context, userID string) (*models.UserLocation, error) {
	if userID == "" {
		return nil, domain.InvalidArgument("userId is required")
	}
	loc, err := s.store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, storage(named(err, "location"))
	}
	return loc, nil
}
