// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Public URL of the web client; invitation links point here.
	AppBaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:5173"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Session tokens are HS256 JWTs signed with this secret.
	JWTSecret   string `env:"JWT_SECRET,required"`
	JWTAudience string `env:"JWT_AUDIENCE" envDefault:"authenticated"`

	// Invitations
	InviteTTL time.Duration `env:"INVITE_TTL" envDefault:"72h"`

	// Email (Amazon SES). An empty sender disables delivery.
	SESRegion    string `env:"SES_REGION" envDefault:"us-east-1"`
	SESFromEmail string `env:"SES_FROM_EMAIL" envDefault:""`
	SESFromName  string `env:"SES_FROM_NAME" envDefault:"Guardian"`

	// Safety feed
	LowBatteryThreshold int           `env:"LOW_BATTERY_THRESHOLD" envDefault:"15"`
	ChildrenCacheTTL    time.Duration `env:"CHILDREN_CACHE_TTL" envDefault:"60s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting of invitations, per calling parent
	RateLimitInviteEnabled bool `env:"RATE_LIMIT_INVITE_ENABLED" envDefault:"true"`
	RateLimitInvitePerMin  int  `env:"RATE_LIMIT_INVITE_PER_MIN" envDefault:"10"`
	RateLimitInviteBurst   int  `env:"RATE_LIMIT_INVITE_BURST" envDefault:"5"`

	// Browser origins allowed to call /api/v1. /functions/v1 accepts any origin.
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	// Request body size limit in bytes (default 64KB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"65536"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MailEnabled returns true if a sender address is configured.
func (c *Config) MailEnabled() bool {
	return c.SESFromEmail != ""
}

// Validate checks values that env tags cannot express.
func (c *Config) Validate() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes")
	}
	if c.InviteTTL <= 0 {
		return fmt.Errorf("INVITE_TTL must be positive")
	}
	if c.LowBatteryThreshold < 0 || c.LowBatteryThreshold > 100 {
		return fmt.Errorf("LOW_BATTERY_THRESHOLD must be between 0 and 100")
	}
	return nil
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
