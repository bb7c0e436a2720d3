package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application configuration. It is built once in main and
// passed to the components that need it.
type Config struct {
	ServerPort      string        `env:"PORT" envDefault:"8080"`
	DatabaseType    string        `env:"DATABASE_TYPE" envDefault:"sqlite"`
	DatabasePath    string        `env:"DB_PATH" envDefault:"./triproom.db"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	SessionDuration time.Duration `env:"SESSION_DURATION" envDefault:"24h"`

	JWTSecret     string        `env:"JWT_SECRET"`
	TokenDuration time.Duration `env:"TOKEN_DURATION" envDefault:"24h"`
	CSRFSecret    string        `env:"CSRF_SECRET"`

	AWSRegion    string `env:"AWS_REGION" envDefault:"us-east-1"`
	SESFromEmail string `env:"SES_FROM_EMAIL"`
	SESFromName  string `env:"SES_FROM_NAME" envDefault:"Trip Room"`
	AppBaseURL   string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	GoogleClientID       string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret   string `env:"GOOGLE_CLIENT_SECRET"`
	FacebookClientID     string `env:"FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string `env:"FACEBOOK_CLIENT_SECRET"`
	AppleClientID        string `env:"APPLE_CLIENT_ID"`
	AppleClientSecret    string `env:"APPLE_CLIENT_SECRET"`
	OAuthRedirectBaseURL string `env:"OAUTH_REDIRECT_BASE_URL"`

	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"20"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Debug    bool   `env:"DEBUG" envDefault:"false"`
}

// Load reads configuration from the environment. Values from a .env file in
// the working directory are applied first when the file exists; variables
// already present in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse builds a Config from the current environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = cfg.CSRFSecret
	}
	return cfg, nil
}
