package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"radar/config"
	"radar/internal/database"
	"radar/internal/logger"
	"radar/internal/middleware"
	"radar/internal/repository/memory"
	"radar/internal/router"
	"radar/pkg/cloudinary"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	startedAt := time.Now()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var stores router.Stores
	var closers []func() error
	switch cfg.Database.Driver {
	case "memory":
		log.Warn("using in-memory storage; data is lost on restart")
		stores = router.MemoryStores(memory.New())
	default:
		db, err := database.NewDB(&cfg.Database)
		if err != nil {
			return err
		}
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			closers = append(closers, sqlDB.Close)
		}
		stores = router.GormStores(db)
	}

	var deps router.Deps
	deps.Log = log
	if cfg.Cloudinary.CloudName != "" {
		cloud, err := cloudinary.New(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
		if err != nil {
			return fmt.Errorf("cloudinary: %w", err)
		}
		deps.Cloud = cloud
	} else {
		log.Info("avatar uploads disabled: RADAR_CLOUDINARY_CLOUD_NAME not set")
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.RateLimit.Enabled {
		if cfg.Redis.Addr != "" {
			rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
			closers = append(closers, rdb.Close)
			deps.Limiter = middleware.NewRedisRateLimiter(rdb, "radar:rl", cfg.RateLimit.Requests, cfg.RateLimit.Window)
			log.Info("rate limiting via redis", zap.String("addr", cfg.Redis.Addr))
		} else {
			l := middleware.NewInMemoryRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
			g.Go(func() error {
				l.Cleanup(gCtx)
				return nil
			})
			deps.Limiter = l
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(cfg, stores, deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g.Go(func() error {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown", zap.Error(err))
		}
		for _, c := range closers {
			if err := c(); err != nil {
				log.Error("close", zap.Error(err))
			}
		}
		return nil
	})

	err = g.Wait()
	log.Info("server stopped", zap.Duration("uptime", time.Since(startedAt)))
	return err
}
