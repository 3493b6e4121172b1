package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"radar/config"
	"radar/internal/domain"
	"radar/internal/polling"
	"radar/internal/repository/memory"
	"radar/internal/router"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		JWT:      config.JWTConfig{Secret: "k", Expiry: time.Hour, Issuer: "radar"},
		Location: config.LocationConfig{CandidateCap: 1000},
		CORS:     config.CORSConfig{AllowOrigins: []string{"*"}},
	}
	srv := httptest.NewServer(router.Setup(cfg, router.MemoryStores(memory.New()), router.Deps{}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientAgainstServer(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	alice := New(Config{BaseURL: srv.URL + "/api/v1"}, nil)
	bob := New(Config{BaseURL: srv.URL + "/api/v1/"}, nil)

	a, err := alice.CreateUser(ctx, "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	b, err := bob.CreateUser(ctx, "bob", "bob@example.com")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if alice.token == "" || a.ID == "" {
		t.Fatalf("token not stored")
	}

	acc := 5.0
	if err := bob.ReportLocation(ctx, b.ID, domain.Fix{Latitude: 52.52, Longitude: 13.405, Accuracy: &acc}); err != nil {
		t.Fatalf("ReportLocation: %v", err)
	}
	users, err := alice.FindNearby(ctx, domain.NearbyQuery{ViewerID: a.ID, Latitude: 52.5201, Longitude: 13.405, RadiusMeters: 500})
	if err != nil {
		t.Fatalf("FindNearby: %v", err)
	}
	if len(users) != 1 || users[0].ID != b.ID || users[0].Location.Accuracy == nil {
		t.Fatalf("users = %+v", users)
	}

	if _, err := alice.CreateUser(ctx, "again", "alice@example.com"); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("duplicate err = %v, want ErrConflict", err)
	}
	err = alice.ReportLocation(ctx, a.ID, domain.Fix{Latitude: 120})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("bad fix err = %v, want ErrInvalidArgument", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || apiErr.Message == "" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestClientDrivesOrchestrator(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()

	other := New(Config{BaseURL: srv.URL + "/api/v1"}, nil)
	o, err := other.CreateUser(ctx, "other", "other@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if err := other.ReportLocation(ctx, o.ID, domain.Fix{Latitude: -33.8688, Longitude: 151.2093}); err != nil {
		t.Fatal(err)
	}

	me := New(Config{BaseURL: srv.URL + "/api/v1"}, nil)
	u, err := me.CreateUser(ctx, "me", "me@example.com")
	if err != nil {
		t.Fatal(err)
	}
	orch := polling.New(polling.StaticSource{Fix: domain.Fix{Latitude: -33.8690, Longitude: 151.2090}}, me, nil)
	lists := make(chan []domain.NearbyUser, 4)
	if err := orch.Start(u.ID, polling.Options{Interval: time.Hour}, polling.Callbacks{
		OnNearby: func(users []domain.NearbyUser) { lists <- users },
	}); err != nil {
		t.Fatal(err)
	}
	defer orch.Stop()

	select {
	case users := <-lists:
		if len(users) != 1 || users[0].ID != o.ID {
			t.Fatalf("users = %+v", users)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no nearby list delivered")
	}
}

func TestCircuitBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"temporary server error, please retry"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, MaxFailures: 2, OpenTimeout: time.Minute}, nil)
	q := domain.NearbyQuery{Latitude: 1, Longitude: 1}
	for i := 0; i < 2; i++ {
		if _, err := c.FindNearby(context.Background(), q); !errors.Is(err, domain.ErrStorage) {
			t.Fatalf("call %d err = %v, want ErrStorage", i, err)
		}
	}
	if _, err := c.FindNearby(context.Background(), q); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("err = %v, want open breaker", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("server calls = %d, want 2", n)
	}
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, MaxFailures: 1, OpenTimeout: time.Minute}, nil)
	for i := 0; i < 3; i++ {
		err := c.ReportLocation(context.Background(), "u", domain.Fix{})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("call %d err = %v, want ErrNotFound", i, err)
		}
	}
}
