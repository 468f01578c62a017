package config

import (
	"fmt"
	"time"

	"github.com/trademark-gov/order-relay/internal/pkg/env"
)

// Config holds everything the relay reads from the environment. It is built
// once at startup and handed to the components that need it.
type Config struct {
	Host string
	Port string

	SMTP   SMTP
	Notify Notify

	StripeSecretKey  string
	StripeSigningKey string
	Checkout         Checkout

	RateLimit RateLimit
	Redis     Redis

	MetricsUser     string
	MetricsPassword string
}

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

type Notify struct {
	To      string
	Subject string
}

type Checkout struct {
	Currency   string
	SuccessURL string
	CancelURL  string
}

type RateLimit struct {
	Max    int
	Window time.Duration
}

// Redis backs the rate limiter when Host is set.
type Redis struct {
	Host     string
	Port     int
	Password string
	Database int
}

func Load() Config {
	return Config{
		Host: env.GetEnv("APP_HOST", ""),
		Port: env.GetEnv("PORT", "3000"),
		SMTP: SMTP{
			Host:     env.GetEnv("SMTP_HOST", "mail.trademark-gov.us"),
			Port:     env.GetEnvInt("SMTP_PORT", 587),
			Username: env.GetEnv("EMAIL_USER", ""),
			Password: env.GetEnv("EMAIL_PASS", ""),
			Timeout:  env.GetEnvDuration("SMTP_TIMEOUT", 30*time.Second),
		},
		Notify: Notify{
			To:      env.GetEnv("NOTIFY_TO", "info@trademark-gov.us"),
			Subject: env.GetEnv("NOTIFY_SUBJECT", "New User Email Submission"),
		},
		StripeSecretKey:  env.GetEnv("STRIPE_SECRET_KEY", ""),
		StripeSigningKey: env.GetEnv("STRIPE_SIGN", ""),
		Checkout: Checkout{
			Currency:   env.GetEnv("CHECKOUT_CURRENCY", "usd"),
			SuccessURL: env.GetEnv("CHECKOUT_SUCCESS_URL", "https://trademark-gov.us/success.html"),
			CancelURL:  env.GetEnv("CHECKOUT_CANCEL_URL", "https://trademark-gov.us/cancel.html"),
		},
		RateLimit: RateLimit{
			Max:    env.GetEnvInt("RATE_LIMIT_MAX", 20),
			Window: env.GetEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Redis: Redis{
			Host:     env.GetEnv("REDIS_HOST", ""),
			Port:     env.GetEnvInt("REDIS_PORT", 6379),
			Password: env.GetEnv("REDIS_PASSWORD", ""),
			Database: env.GetEnvInt("REDIS_DB", 0),
		},
		MetricsUser:     env.GetEnv("METRICS_USER", ""),
		MetricsPassword: env.GetEnv("METRICS_PASSWORD", ""),
	}
}

// Addr is the listen address for fiber.App.Listen.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// MetricsEnabled reports whether /metrics should be mounted.
func (c Config) MetricsEnabled() bool {
	return c.MetricsUser != "" && c.MetricsPassword != ""
}

// Warnings lists settings that leave part of the relay unusable. None of them
// stop the process: the affected requests fail through their normal error
// paths.
func (c Config) Warnings() []string {
	var w []string
	if c.StripeSecretKey == "" {
		w = append(w, "STRIPE_SECRET_KEY is not set, checkout sessions cannot be created")
	}
	if c.StripeSigningKey == "" {
		w = append(w, "STRIPE_SIGN is not set, every webhook will fail verification")
	}
	if c.SMTP.Username == "" || c.SMTP.Password == "" {
		w = append(w, "EMAIL_USER/EMAIL_PASS not set, sending without SMTP auth")
	}
	return w
}
