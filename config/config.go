package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every variable, e.g. RADAR_SERVER_PORT.
const EnvPrefix = "RADAR"

type Config struct {
	Server     ServerConfig     `envconfig:"SERVER"`
	Database   DatabaseConfig   `envconfig:"DATABASE"`
	JWT        JWTConfig        `envconfig:"JWT"`
	Cloudinary CloudinaryConfig `envconfig:"CLOUDINARY"`
	Location   LocationConfig   `envconfig:"LOCATION"`
	Redis      RedisConfig      `envconfig:"REDIS"`
	RateLimit  RateLimitConfig  `envconfig:"RATE_LIMIT"`
	CORS       CORSConfig       `envconfig:"CORS"`
	Log        LogConfig        `envconfig:"LOG"`
	Client     ClientConfig     `envconfig:"CLIENT"`
}

type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8099"`
	Env             string        `envconfig:"ENV" default:"development"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

type DatabaseConfig struct {
	// Driver is "mysql" or "memory".
	Driver          string        `envconfig:"DRIVER" default:"mysql"`
	DSN             string        `envconfig:"DSN" default:"radar:radar@tcp(localhost:3306)/radar?charset=utf8mb4&parseTime=True&loc=UTC"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"10"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"100"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"1h"`
}

type JWTConfig struct {
	Secret string        `envconfig:"SECRET" default:"change-me-in-production"`
	Expiry time.Duration `envconfig:"EXPIRY" default:"720h"`
	Issuer string        `envconfig:"ISSUER" default:"radar"`
}

// CloudinaryConfig enables avatar uploads when CloudName is set.
type CloudinaryConfig struct {
	CloudName string `envconfig:"CLOUD_NAME"`
	APIKey    string `envconfig:"API_KEY"`
	APISecret string `envconfig:"API_SECRET"`
	Folder    string `envconfig:"FOLDER" default:"radar/avatars"`
}

type LocationConfig struct {
	// CandidateCap bounds the rows fetched from storage per nearby query.
	CandidateCap int `envconfig:"CANDIDATE_CAP" default:"1000"`
}

// RedisConfig switches the rate limiter to a shared Redis counter when Addr is set.
type RedisConfig struct {
	Addr     string `envconfig:"ADDR"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
}

type RateLimitConfig struct {
	Enabled  bool          `envconfig:"ENABLED" default:"true"`
	Requests int           `envconfig:"REQUESTS" default:"100"`
	Window   time.Duration `envconfig:"WINDOW" default:"60s"`
}

type CORSConfig struct {
	AllowOrigins []string `envconfig:"ALLOW_ORIGINS" default:"*"`
}

type LogConfig struct {
	Level string `envconfig:"LEVEL" default:"info"`
	// Development switches zap to the human readable console encoder.
	Development bool `envconfig:"DEVELOPMENT" default:"false"`
}

// ClientConfig is used by cmd/poller to reach a running server.
type ClientConfig struct {
	BaseURL     string        `envconfig:"BASE_URL" default:"http://localhost:8099/api/v1"`
	Timeout     time.Duration `envconfig:"TIMEOUT" default:"10s"`
	MaxFailures uint32        `envconfig:"MAX_FAILURES" default:"5"`
	OpenTimeout time.Duration `envconfig:"OPEN_TIMEOUT" default:"30s"`
	Interval    time.Duration `envconfig:"INTERVAL" default:"30s"`
}

// Load reads configuration from the environment, after loading .env if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "memory":
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}
	if c.Location.CandidateCap <= 0 {
		return fmt.Errorf("config: candidate cap must be positive")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("config: rate limit needs positive requests and window")
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Server.Env == "production" }
