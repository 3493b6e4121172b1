package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"unicode"

	"radar/config"
	"radar/internal/domain"
	"radar/internal/polling"
	"radar/internal/repository/memory"
	"radar/internal/router"
	"radar/internal/service"
	"radar/pkg/location"

	"go.uber.org/zap"
)

// newLocalBackend builds the services over an in-memory store, creates the device user
// and scatters neighbours inside radiusMeters of the start so the list is not empty.
func newLocalBackend(ctx context.Context, cfg *config.Config, name string, lat, lng, radiusMeters float64, neighbours int, seed int64) (polling.LocalBackend, string, error) {
	svc := router.NewServices(cfg, router.MemoryStores(memory.New()))
	backend := polling.LocalBackend{Locations: svc.Locations, Nearby: svc.Nearby}

	me, err := svc.Users.CreateUser(ctx, service.CreateUserInput{Name: name, Email: "device@radar.local"})
	if err != nil {
		return backend, "", fmt.Errorf("create device user: %w", err)
	}

	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < neighbours; i++ {
		u, err := svc.Users.CreateUser(ctx, service.CreateUserInput{
			Name:  fmt.Sprintf("neighbour-%d", i+1),
			Email: fmt.Sprintf("neighbour-%d@radar.local", i+1),
		})
		if err != nil {
			return backend, "", fmt.Errorf("create neighbour: %w", err)
		}
		// a single step of at most 0.9 radius keeps every neighbour inside the search
		fix, err := polling.NewWalkSource(lat, lng, radiusMeters*0.9, rng.Int63()).Current(ctx)
		if err != nil {
			return backend, "", err
		}
		if err := backend.ReportLocation(ctx, u.ID, fix); err != nil {
			return backend, "", fmt.Errorf("place neighbour: %w", err)
		}
	}
	return backend, me.ID, nil
}

type fixUpdater interface {
	UpdateNow(ctx context.Context, fix domain.Fix) error
}

// readFixes turns each "lat,lng" line of r into an immediate cycle until r is drained
// or ctx is done.
func readFixes(ctx context.Context, r io.Reader, orch fixUpdater, log *zap.Logger) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fix, err := parseFix(line)
		if err != nil {
			log.Warn("ignoring manual fix", zap.String("input", line), zap.Error(err))
			continue
		}
		switch err := orch.UpdateNow(ctx, fix); {
		case errors.Is(err, polling.ErrCycleInFlight):
			log.Info("cycle in flight, manual fix dropped")
		case err != nil:
			log.Warn("manual update failed", zap.Error(err))
		}
	}
}

func parseFix(s string) (domain.Fix, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
	if len(parts) != 2 {
		return domain.Fix{}, fmt.Errorf("want \"lat,lng\", got %q", s)
	}
	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return domain.Fix{}, err
	}
	lng, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return domain.Fix{}, err
	}
	if !location.ValidCoordinate(lat, lng) {
		return domain.Fix{}, fmt.Errorf("%v,%v is out of range", lat, lng)
	}
	return domain.Fix{Latitude: lat, Longitude: lng}, nil
}
