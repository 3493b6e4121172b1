package polling

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"radar/internal/domain"
	"radar/pkg/location"
)

// StaticSource always reports the same position.
type StaticSource struct {
	Fix domain.Fix
}

func (s StaticSource) Current(context.Context) (domain.Fix, error) {
	f := s.Fix
	f.Timestamp = time.Now().UTC()
	return f, nil
}

// WalkSource simulates a device wandering around a starting point. Each call moves up to
// StepMeters in a random direction.
type WalkSource struct {
	StepMeters float64
	Accuracy   float64

	mu  sync.Mutex
	lat float64
	lng float64
	rng *rand.Rand
}

func NewWalkSource(lat, lng, stepMeters float64, seed int64) *WalkSource {
	return &WalkSource{
		StepMeters: stepMeters,
		Accuracy:   10,
		lat:        lat,
		lng:        lng,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

func (w *WalkSource) Current(ctx context.Context) (domain.Fix, error) {
	if err := ctx.Err(); err != nil {
		return domain.Fix{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	dist := w.rng.Float64() * w.StepMeters
	bearing := w.rng.Float64() * 2 * math.Pi
	dLat := dist * math.Cos(bearing) / location.EarthRadiusMeters * 180 / math.Pi
	if c := math.Cos(w.lat * math.Pi / 180); c > 1e-9 {
		w.lng = wrapLongitude(w.lng + dist*math.Sin(bearing)/(location.EarthRadiusMeters*c)*180/math.Pi)
	}
	w.lat = math.Max(-90, math.Min(90, w.lat+dLat))

	acc := w.Accuracy
	return domain.Fix{Latitude: w.lat, Longitude: w.lng, Accuracy: &acc, Timestamp: time.Now().UTC()}, nil
}

func wrapLongitude(lng float64) float64 {
	for lng > 180 {
		lng -= 360
	}
	for lng < -180 {
		lng += 360
	}
	return lng
}
