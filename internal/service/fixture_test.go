package service

import (
	"context"
	"testing"
	"time"

	"radar/internal/repository/memory"
)

type fixture struct {
	store   *memory.Store
	users   *UserService
	locs    *LocationService
	privacy *PrivacyService
	nearby  *NearbyService
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	f := &fixture{
		store: store,
		now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.users = NewUserService(store.Users())
	f.locs = NewLocationService(store.Locations())
	f.privacy = NewPrivacyService(store.Privacy())
	f.nearby = NewNearbyService(store.Nearby(), f.privacy, 0)
	clock := func() time.Time { return f.now }
	f.locs.now = clock
	f.nearby.now = clock
	return f
}

func (f *fixture) addUser(t *testing.T, name string) string {
	t.Helper()
	u, err := f.users.CreateUser(context.Background(), CreateUserInput{Name: name, Email: name + "@example.com"})
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return u.ID
}

func (f *fixture) report(t *testing.T, userID string, lat, lng float64) {
	t.Helper()
	if _, err := f.locs.ReportLocation(context.Background(), ReportInput{UserID: userID, Latitude: &lat, Longitude: &lng}); err != nil {
		t.Fatalf("report %s: %v", userID, err)
	}
}

// reportAt records a location as if it had been sent at ts.
func (f *fixture) reportAt(t *testing.T, userID string, lat, lng float64, ts time.Time) {
	t.Helper()
	saved := f.now
	f.now = ts
	f.report(t, userID, lat, lng)
	f.now = saved
}

func (f *fixture) patch(t *testing.T, userID string, p PrivacyPatch) {
	t.Helper()
	if _, err := f.privacy.Update(context.Background(), userID, p); err != nil {
		t.Fatalf("update privacy %s: %v", userID, err)
	}
}

func ptr[T any](v T) *T { return &v }
