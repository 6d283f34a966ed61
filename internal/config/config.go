// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Identity provider (GoTrue-compatible REST API)
	IdentityURL    string `env:"IDENTITY_URL,required"`
	IdentityAPIKey string `env:"IDENTITY_API_KEY,required"`
	// Domain used to derive a synthetic email from a username on signup,
	// e.g. "alice" -> "alice@dropgate.app".
	IdentityEmailDomain string `env:"IDENTITY_EMAIL_DOMAIN" envDefault:"dropgate.app"`

	// Object storage provider (S3-compatible endpoint)
	StorageEndpoint   string `env:"STORAGE_ENDPOINT,required"`
	StorageAccessKey  string `env:"STORAGE_ACCESS_KEY,required"`
	StorageSecretKey  string `env:"STORAGE_SECRET_KEY,required"`
	StorageBucket     string `env:"STORAGE_BUCKET" envDefault:"uploads"`
	StorageUseSSL     bool   `env:"STORAGE_USE_SSL" envDefault:"true"`
	StoragePublicBase string `env:"STORAGE_PUBLIC_BASE" envDefault:""`

	// Payment provider. Checkout creation fails with a configuration error
	// when the API key or product ID is empty; the rest of the API keeps working.
	PaymentAPIURL        string `env:"PAYMENT_API_URL" envDefault:"https://api.payments.example.com"`
	PaymentAPIKey        string `env:"PAYMENT_API_KEY" envDefault:""`
	PaymentProductID     string `env:"PAYMENT_PRODUCT_ID" envDefault:""`
	PaymentReturnURL     string `env:"PAYMENT_RETURN_URL" envDefault:""`
	PaymentWebhookSecret string `env:"PAYMENT_WEBHOOK_SECRET" envDefault:""`

	// Cache (Redis). Optional: auth-endpoint rate limiting is disabled when empty.
	RedisURL string `env:"REDIS_URL" envDefault:""`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting for the unauthenticated auth endpoints (signup/login)
	RateLimitAuthEnabled bool `env:"RATE_LIMIT_AUTH_ENABLED" envDefault:"true"`
	RateLimitAuthRPM     int  `env:"RATE_LIMIT_AUTH_RPM" envDefault:"30"`
	RateLimitAuthBurst   int  `env:"RATE_LIMIT_AUTH_BURST" envDefault:"10"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Maximum accepted upload payload size in bytes (default 50MB).
	// Enforced at the transport layer before the upload handler runs.
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// PaymentConfigured reports whether checkout creation has everything it needs.
func (c *Config) PaymentConfigured() bool {
	return c.PaymentAPIKey != "" && c.PaymentProductID != ""
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	if c.IdentityEmailDomain == "" || strings.Contains(c.IdentityEmailDomain, "@") {
		return errors.New("IDENTITY_EMAIL_DOMAIN must be a bare domain name")
	}
	return nil
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
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
