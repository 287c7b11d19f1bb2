package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Auth provider implementations selectable with AUTH_PROVIDER.
const (
	ProviderHosted  = "hosted"
	ProviderSurreal = "surreal"
	ProviderMemory  = "memory"
)

// Email senders selectable with EMAIL_PROVIDER.
const (
	EmailLog    = "log"
	EmailResend = "resend"
)

// Session backends selectable with SESSION_BACKEND.
const (
	SessionCookie = "cookie"
	SessionRedis  = "redis"
)

// Provider is the read-only view of the configuration that the rest of the
// application depends on.
type Provider interface {
	GetAddr() string
	GetAppBaseURL() string
	GetSessionSecret() string
	GetSessionBackend() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetAuthProvider() string
	GetAuthURL() string
	GetAuthAnonKey() string
	GetAuthJWTSecret() string
	GetAuthTimeout() time.Duration
	GetStorageBucket() string
	GetAvatarDir() string
	GetTurnstileSiteKey() string
	GetTurnstileSecretKey() string
	GetDBUrl() string
	GetDBNs() string
	GetDBDb() string
	GetDBUser() string
	GetDBPass() string
	GetEmailProvider() string
	GetEmailAPIKey() string
	GetEmailSender() string
}

// Config holds all configuration for the application.
type Config struct {
	Addr           string        `env:"APP_ADDR" envDefault:":8080"`
	AppBaseURL     string        `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
	SessionSecret  string        `env:"SESSION_SECRET"`
	SessionBackend string        `env:"SESSION_BACKEND" envDefault:"cookie"`
	RedisAddr      string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	AuthProvider   string        `env:"AUTH_PROVIDER" envDefault:"hosted"`
	AuthURL        string        `env:"AUTH_URL"`
	AuthAnonKey    string        `env:"AUTH_ANON_KEY"`
	AuthJWTSecret  string        `env:"AUTH_JWT_SECRET"`
	AuthTimeout    time.Duration `env:"AUTH_TIMEOUT" envDefault:"10s"`
	StorageBucket  string        `env:"STORAGE_BUCKET" envDefault:"avatars"`
	AvatarDir      string        `env:"AVATAR_DIR" envDefault:"data/avatars"`
	TurnstileSite  string        `env:"TURNSTILE_SITE_KEY"`
	TurnstileKey   string        `env:"TURNSTILE_SECRET_KEY"`
	DBUrl          string        `env:"SURREAL_URL"`
	DBNs           string        `env:"SURREAL_NS"`
	DBDb           string        `env:"SURREAL_DB"`
	DBUser         string        `env:"SURREAL_USER"`
	DBPass         string        `env:"SURREAL_PASS"`
	EmailProvider  string        `env:"EMAIL_PROVIDER" envDefault:"log"`
	EmailAPIKey    string        `env:"EMAIL_API_KEY"`
	EmailSender    string        `env:"EMAIL_SENDER"`
}

// New loads configuration from a .env file (if present) and the environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.AppBaseURL = strings.TrimRight(cfg.AppBaseURL, "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromMap builds a configuration from an explicit set of variables. The
// process environment is ignored, which keeps tests hermetic.
func FromMap(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.AppBaseURL = strings.TrimRight(cfg.AppBaseURL, "/")
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is required"))
	}

	switch c.AuthProvider {
	case ProviderHosted:
		if c.AuthURL == "" || c.AuthAnonKey == "" {
			errs = append(errs, errors.New("AUTH_URL and AUTH_ANON_KEY are required for the hosted auth provider"))
		}
	case ProviderSurreal:
		if c.DBUrl == "" || c.DBNs == "" || c.DBDb == "" {
			errs = append(errs, errors.New("SURREAL_URL, SURREAL_NS and SURREAL_DB are required for the surreal auth provider"))
		}
	case ProviderMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider))
	}

	switch c.SessionBackend {
	case SessionCookie:
	case SessionRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis session backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend))
	}

	switch c.EmailProvider {
	case EmailLog:
	case EmailResend:
		if c.EmailAPIKey == "" {
			errs = append(errs, errors.New("EMAIL_API_KEY is required for the resend email provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown EMAIL_PROVIDER %q", c.EmailProvider))
	}

	if c.AuthTimeout <= 0 {
		errs = append(errs, errors.New("AUTH_TIMEOUT must be a positive duration"))
	}
	return errors.Join(errs...)
}

func (c *Config) GetAddr() string               { return c.Addr }
func (c *Config) GetAppBaseURL() string         { return c.AppBaseURL }
func (c *Config) GetSessionSecret() string      { return c.SessionSecret }
func (c *Config) GetSessionBackend() string     { return c.SessionBackend }
func (c *Config) GetRedisAddr() string          { return c.RedisAddr }
func (c *Config) GetRedisPassword() string      { return c.RedisPassword }
func (c *Config) GetRedisDB() int               { return c.RedisDB }
func (c *Config) GetAuthProvider() string       { return c.AuthProvider }
func (c *Config) GetAuthURL() string            { return strings.TrimRight(c.AuthURL, "/") }
func (c *Config) GetAuthAnonKey() string        { return c.AuthAnonKey }
func (c *Config) GetAuthJWTSecret() string      { return c.AuthJWTSecret }
func (c *Config) GetAuthTimeout() time.Duration { return c.AuthTimeout }
func (c *Config) GetStorageBucket() string      { return c.StorageBucket }
func (c *Config) GetAvatarDir() string          { return c.AvatarDir }
func (c *Config) GetTurnstileSiteKey() string   { return c.TurnstileSite }
func (c *Config) GetTurnstileSecretKey() string { return c.TurnstileKey }
func (c *Config) GetDBUrl() string              { return c.DBUrl }
func (c *Config) GetDBNs() string               { return c.DBNs }
func (c *Config) GetDBDb() string               { return c.DBDb }
func (c *Config) GetDBUser() string             { return c.DBUser }
func (c *Config) GetDBPass() string             { return c.DBPass }
func (c *Config) GetEmailProvider() string      { return c.EmailProvider }
func (c *Config) GetEmailAPIKey() string        { return c.EmailAPIKey }
func (c *Config) GetEmailSender() string        { return c.EmailSender }
