package polling

import (
	"context"

	"radar/internal/domain"
	"radar/internal/service"
)

// LocalBackend runs cycles against the services in the same process.
type LocalBackend struct {
	Locations *service.LocationService
	Nearby    *service.NearbyService
}

func (b LocalBackend) ReportLocation(ctx context.Context, userID string, fix domain.Fix) error {
	_, err := b.Locations.ReportLocation(ctx, service.ReportInput{
		UserID:    userID,
		Latitude:  &fix.Latitude,
		Longitude: &fix.Longitude,
		Accuracy:  fix.Accuracy,
	})
	return err
}

func (b LocalBackend) FindNearby(ctx context.Context, q domain.NearbyQuery) ([]domain.NearbyUser, error) {
	return b.Nearby.FindNearby(ctx, q)
}
