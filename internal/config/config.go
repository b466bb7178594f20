package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port           string        `env:"PORT"                    envDefault:"8080"`
	MongoURI       string        `env:"MONGO_CONNECTION_STRING"` // Selects the MongoDB store when set
	MongoDatabase  string        `env:"MONGO_DATABASE"          envDefault:"blog"`
	DatabaseURL    string        `env:"DATABASE_URL"`                 // PostgreSQL DSN, used when MongoURI is empty
	RedisURL       string        `env:"REDIS_URL"`                    // Optional: post cache and event relay
	JWTSecret      string        `env:"JWT_SECRET,required,notEmpty"` // Secret key for token signing
	JWTTTL         time.Duration `env:"JWT_TTL"                 envDefault:"1h"`
	UploadDir      string        `env:"UPLOAD_DIR"              envDefault:"images"`
	AccessLogPath  string        `env:"ACCESS_LOG_PATH"         envDefault:"access.log"`
	FrontendURL    string        `env:"FRONTEND_URL"            envDefault:"http://localhost:3000"` // Target of post QR codes
	FeedPageSize   int           `env:"FEED_PAGE_SIZE"          envDefault:"2"`
	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES"        envDefault:"10485760"`
	JSONBodyLimit  int64         `env:"JSON_BODY_LIMIT"         envDefault:"102400"`
	LogLevel       string        `env:"LOG_LEVEL"               envDefault:"info"`

	RateLimitAuthRPS   float64 `env:"RATE_LIMIT_AUTH_RPS"   envDefault:"5"`  // Requests per second per IP on /auth
	RateLimitAuthBurst int     `env:"RATE_LIMIT_AUTH_BURST" envDefault:"10"` // Burst size on /auth
}

// Load reads .env (if present) into the process environment and parses it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or defaults")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MongoURI == "" && c.DatabaseURL == "" {
		return errors.New("either MONGO_CONNECTION_STRING or DATABASE_URL must be set")
	}
	if c.FeedPageSize <= 0 {
		return fmt.Errorf("FEED_PAGE_SIZE must be positive, got %d", c.FeedPageSize)
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	return nil
}

// UseMongo reports whether the MongoDB store is selected.
func (c *Config) UseMongo() bool {
	return c.MongoURI != ""
}

// Addr is the listen address derived from Port.
func (c *Config) Addr() string {
	return ":" + c.Port
}
