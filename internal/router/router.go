package router

import (
	"time"

	"radar/config"
	"radar/internal/handler"
	"radar/internal/metrics"
	"radar/internal/middleware"
	"radar/internal/repository"
	"radar/internal/repository/memory"
	"radar/internal/service"
	"radar/pkg/cloudinary"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Stores bundles the storage implementations the services run on.
type Stores struct {
	Users      service.UserStore
	Locations  service.LocationStore
	Privacy    service.PrivacyStore
	Candidates service.CandidateStore
	Ping       handler.Pinger
}

func GormStores(db *gorm.DB) Stores {
	return Stores{
		Users:      repository.NewUserRepository(db),
		Locations:  repository.NewLocationRepository(db),
		Privacy:    repository.NewPrivacyRepository(db),
		Candidates: repository.NewNearbyRepository(db),
		Ping:       repository.Ping(db),
	}
}

func MemoryStores(s *memory.Store) Stores {
	return Stores{
		Users:      s.Users(),
		Locations:  s.Locations(),
		Privacy:    s.Privacy(),
		Candidates: s.Nearby(),
	}
}

// Services is the application layer shared by the HTTP handlers and in-process pollers.
type Services struct {
	Users     *service.UserService
	Locations *service.LocationService
	Privacy   *service.PrivacyService
	Nearby    *service.NearbyService
}

func NewServices(cfg *config.Config, st Stores) Services {
	privacy := service.NewPrivacyService(st.Privacy)
	return Services{
		Users:     service.NewUserService(st.Users),
		Locations: service.NewLocationService(st.Locations),
		Privacy:   privacy,
		Nearby:    service.NewNearbyService(st.Candidates, privacy, cfg.Location.CandidateCap),
	}
}

// Deps are the optional collaborators of the HTTP engine. Nil values disable the feature.
type Deps struct {
	Limiter middleware.Limiter
	Cloud   cloudinary.Uploader
	Log     *zap.Logger
}

func Setup(cfg *config.Config, st Stores, d Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	svc := NewServices(cfg, st)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(cors.New(corsConfig(cfg.CORS)))
	if d.Limiter != nil {
		r.Use(middleware.RateLimit(d.Limiter, log))
	}

	metrics.Init()
	health := handler.NewHealthHandler(st.Ping)
	r.GET("/healthz", health.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	userHandler := handler.NewUserHandler(svc.Users, &cfg.JWT, log)
	avatarHandler := handler.NewAvatarHandler(svc.Users, d.Cloud, cfg.Cloudinary.Folder, log)
	locationHandler := handler.NewLocationHandler(svc.Locations, log)
	privacyHandler := handler.NewPrivacyHandler(svc.Privacy, log)
	nearbyHandler := handler.NewNearbyHandler(svc.Nearby, log)

	api := r.Group("/api/v1")
	api.Use(middleware.Identity(&cfg.JWT))
	{
		users := api.Group("/users")
		users.POST("", userHandler.Create)
		users.GET("", userHandler.Get)
		users.POST("/avatar", avatarHandler.Upload)
		users.POST("/location", locationHandler.Upsert)
		users.GET("/location", locationHandler.Get)
		users.GET("/privacy", privacyHandler.Get)
		users.PUT("/privacy", privacyHandler.Put)
		users.GET("/nearby", nearbyHandler.Find)
	}
	return r
}

func corsConfig(c config.CORSConfig) cors.Config {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range c.AllowOrigins {
		if o == "*" {
			cc.AllowAllOrigins = true
			return cc
		}
	}
	cc.AllowOrigins = c.AllowOrigins
	cc.AllowCredentials = true
	return cc
}
