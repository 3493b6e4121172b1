package main

import (
	"context"
	"strings"
	"sync"
	"testing"

	"radar/config"
	"radar/internal/domain"
	"radar/internal/polling"

	"go.uber.org/zap"
)

func TestLocalBackendSeedsNeighbours(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Location: config.LocationConfig{CandidateCap: 100}}
	backend, me, err := newLocalBackend(ctx, cfg, "device", 37.7749, -122.4194, 1000, 4, 7)
	if err != nil {
		t.Fatalf("newLocalBackend: %v", err)
	}
	if me == "" {
		t.Fatal("device user id is empty")
	}

	src := polling.StaticSource{Fix: domain.Fix{Latitude: 37.7749, Longitude: -122.4194}}
	o := polling.New(src, backend, nil)
	lists := make(chan []domain.NearbyUser, 4)
	if err := o.Start(me, polling.Options{RadiusMeters: 1000}, polling.Callbacks{
		OnNearby: func(u []domain.NearbyUser) { lists <- u },
	}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer o.Stop()

	users := <-lists
	if len(users) != 4 {
		t.Fatalf("nearby = %d users, want 4", len(users))
	}
	for _, u := range users {
		if u.ID == me {
			t.Error("device sees itself")
		}
		if u.Distance == nil || *u.Distance > 1000 {
			t.Errorf("%s distance = %v", u.Name, u.Distance)
		}
	}
}

type recordingUpdater struct {
	mu    sync.Mutex
	fixes []domain.Fix
	err   error
}

func (r *recordingUpdater) UpdateNow(_ context.Context, fix domain.Fix) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fixes = append(r.fixes, fix)
	return r.err
}

func TestReadFixes(t *testing.T) {
	in := strings.NewReader("48.8566,2.3522\n\nnot a fix\n91,0\n-33.86 151.21\n")
	u := &recordingUpdater{}
	readFixes(context.Background(), in, u, zap.NewNop())

	want := []domain.Fix{{Latitude: 48.8566, Longitude: 2.3522}, {Latitude: -33.86, Longitude: 151.21}}
	if len(u.fixes) != len(want) {
		t.Fatalf("fixes = %+v, want %+v", u.fixes, want)
	}
	for i := range want {
		if u.fixes[i] != want[i] {
			t.Errorf("fix %d = %+v, want %+v", i, u.fixes[i], want[i])
		}
	}
}

func TestReadFixesKeepsGoingAfterErrors(t *testing.T) {
	u := &recordingUpdater{err: polling.ErrNotPolling}
	readFixes(context.Background(), strings.NewReader("1,2\n3,4\n"), u, zap.NewNop())
	if len(u.fixes) != 2 {
		t.Errorf("fixes = %d, want 2", len(u.fixes))
	}
}

func TestParseFix(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"1,2", false},
		{" 1 , 2 ", false},
		{"1\t2", false},
		{"1", true},
		{"1,2,3", true},
		{"x,2", true},
		{"0,181", true},
	}
	for _, tc := range tests {
		if _, err := parseFix(tc.in); (err != nil) != tc.wantErr {
			t.Errorf("parseFix(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
	}
}
