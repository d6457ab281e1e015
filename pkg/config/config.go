package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const devJWTSecret = "dev-only-secret-change-in-prod"

type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Auth     AuthConfig
	Gateway  GatewayConfig
	Email    EmailConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	URL         string
	MaxConns    int
	MinConns    int
	MaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type NATSConfig struct {
	URL string
}

type AuthConfig struct {
	JWTSecret  string
	SessionTTL time.Duration
	OTPTTL     time.Duration
}

type GatewayConfig struct {
	Provider       string // paymob or stripe
	BaseURL        string
	APIKey         string
	IntegrationID  string
	IframeID       string
	CallbackSecret string
	StepTimeout    time.Duration
	StripeKey      string
	StripeCurrency string
}

type EmailConfig struct {
	MailerSendKey string
	FromName      string
	FromEmail     string
	DevMode       bool // print OTP mails to logs instead of sending
}

func Load() *Config {
	return &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Port:         getEnv("PORT", "5000"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 5*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			URL:         getEnv("DATABASE_URL", ""),
			MaxConns:    getInt("DB_MAX_CONNS", 10),
			MinConns:    getInt("DB_MIN_CONNS", 1),
			MaxLifetime: getDuration("DB_MAX_LIFETIME", time.Hour),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", ""),
		},
		Auth: AuthConfig{
			JWTSecret:  getEnv("JWT_SECRET", devJWTSecret),
			SessionTTL: getDuration("SESSION_TTL", 7*24*time.Hour),
			OTPTTL:     getDuration("OTP_TTL", 10*time.Minute),
		},
		Gateway: GatewayConfig{
			Provider:       getEnv("GATEWAY_PROVIDER", "paymob"),
			BaseURL:        getEnv("PAYMOB_BASE_URL", "https://accept.paymob.com"),
			APIKey:         getEnv("PAYMOB_API_KEY", ""),
			IntegrationID:  getEnv("PAYMOB_INTEGRATION_ID", ""),
			IframeID:       getEnv("PAYMOB_IFRAME_ID", ""),
			CallbackSecret: getEnv("GATEWAY_CALLBACK_SECRET", ""),
			StepTimeout:    getDuration("GATEWAY_STEP_TIMEOUT", 10*time.Second),
			StripeKey:      getEnv("STRIPE_SECRET_KEY", ""),
			StripeCurrency: getEnv("STRIPE_CURRENCY", "usd"),
		},
		Email: EmailConfig{
			MailerSendKey: getEnv("MAILERSEND_API_KEY", ""),
			FromName:      getEnv("MAIL_FROM_NAME", "UniMart"),
			FromEmail:     getEnv("MAIL_FROM_EMAIL", "noreply@unimart.local"),
			DevMode:       getBool("EMAIL_DEV_MODE", true),
		},
	}
}

// Validate rejects configurations that must never reach production: the
// baked-in JWT secret and an unset callback secret both make the payment
// and session lifecycles forgeable.
func (c *Config) Validate() error {
	if !c.IsProduction() {
		return nil
	}
	if c.Auth.JWTSecret == devJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set explicitly in production")
	}
	if c.Gateway.CallbackSecret == "" {
		return fmt.Errorf("GATEWAY_CALLBACK_SECRET must be set in production")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
