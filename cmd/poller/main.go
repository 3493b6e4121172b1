// Command poller simulates a device: it reports its position to a radar server on a fixed
// interval and prints who is nearby. With -local it runs against an in-process memory
// store seeded with neighbours. Lines of "lat,lng" on stdin trigger an immediate update.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"radar/config"
	"radar/internal/client"
	"radar/internal/domain"
	"radar/internal/logger"
	"radar/internal/polling"
	"radar/pkg/location"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var (
		userID = flag.String("user", "", "existing user id; a new user is created when empty")
		token  = flag.String("token", "", "device token for -user")
		name   = flag.String("name", "radar-device", "name for a newly created user")
		lat    = flag.Float64("lat", 37.7749, "starting latitude")
		lng    = flag.Float64("lng", -122.4194, "starting longitude")
		step   = flag.Float64("step", 0, "random walk step in meters; 0 keeps the device still")
		radius = flag.Float64("radius", domain.DefaultRadiusMeters, "search radius in meters")
		limit  = flag.Int("limit", domain.DefaultNearbyLimit, "maximum users per list")
		every  = flag.Duration("interval", cfg.Client.Interval, "polling interval")
		local  = flag.Bool("local", false, "use an in-process memory store instead of a server")
		crowd  = flag.Int("neighbours", 5, "users seeded around the start in -local mode")
	)
	flag.Parse()

	if !location.ValidCoordinate(*lat, *lng) {
		return fmt.Errorf("invalid starting position %v,%v", *lat, *lng)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var backend polling.Backend
	if *local {
		lb, id, err := newLocalBackend(ctx, cfg, *name, *lat, *lng, *radius, *crowd, int64(uuid.New().ID()))
		if err != nil {
			return err
		}
		backend, *userID = lb, id
		log.Info("local mode", zap.String("user_id", id), zap.Int("neighbours", *crowd))
	} else {
		api := client.New(client.Config{
			BaseURL:     cfg.Client.BaseURL,
			Timeout:     cfg.Client.Timeout,
			MaxFailures: cfg.Client.MaxFailures,
			OpenTimeout: cfg.Client.OpenTimeout,
		}, log)

		if *userID == "" {
			email := fmt.Sprintf("device-%s@radar.local", uuid.NewString()[:8])
			u, err := api.CreateUser(ctx, *name, email)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			*userID = u.ID
			log.Info("created user", zap.String("user_id", u.ID), zap.String("email", email))
		} else if *token != "" {
			api.SetToken(*token)
		}
		backend = api
	}

	var src polling.Source = polling.StaticSource{Fix: domain.Fix{Latitude: *lat, Longitude: *lng}}
	if *step > 0 {
		src = polling.NewWalkSource(*lat, *lng, *step, int64(uuid.New().ID()))
	}

	orch := polling.New(src, backend, log)
	err = orch.Start(*userID, polling.Options{Interval: *every, RadiusMeters: *radius, Limit: *limit}, polling.Callbacks{
		OnLocation: func(f domain.Fix) {
			log.Info("location reported", zap.Float64("lat", f.Latitude), zap.Float64("lng", f.Longitude))
		},
		OnNearby: func(users []domain.NearbyUser) {
			log.Info("nearby", zap.Int("count", len(users)))
			for _, u := range users {
				dist := "hidden"
				if u.Distance != nil {
					dist = location.FormatDistance(float64(*u.Distance))
				}
				log.Info("  user", zap.String("name", u.Name), zap.String("distance", dist), zap.String("proximity", u.ProximityLabel))
			}
		},
	})
	if err != nil {
		return err
	}

	go readFixes(ctx, os.Stdin, orch, log)

	<-ctx.Done()
	log.Info("shutting down", zap.Any("status", orch.Status()))
	orch.Stop()
	return nil
}
