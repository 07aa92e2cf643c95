package config

import (
	"os"
	"strconv"
)

type Config struct {
	Env  string
	Port int

	// Empty DatabaseURL / AMQPURL selects the in-memory implementations.
	DatabaseURL string
	AMQPURL     string

	JWTSecret string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeBaseURL       string

	// Pricing policy. Defaults preserved for behavioural compatibility with
	// the legacy service.
	Currency          string
	TaxRate           string
	DeliveryFee       string
	PrepWindowMinutes int

	LogJSON bool
}

func Default() Config {
	return Config{
		Env:               "dev",
		Port:              5000,
		Currency:          "usd",
		TaxRate:           "0.10",
		DeliveryFee:       "5.00",
		PrepWindowMinutes: 45,
		LogJSON:           true,
	}
}

func EnvDefaults() Config {
	return fromEnv(Default())
}

func fromEnv(c Config) Config {
	if v := os.Getenv("FOODDASH_ENV"); v != "" {
		c.Env = v
	}
	if v := os.Getenv("FOODDASH_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("AMQP_URL"); v != "" {
		c.AMQPURL = v
	}
	if v := os.Getenv("FOODDASH_JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
		c.StripeSecretKey = v
	}
	if v := os.Getenv("STRIPE_WEBHOOK_SECRET"); v != "" {
		c.StripeWebhookSecret = v
	}
	if v := os.Getenv("STRIPE_BASE_URL"); v != "" {
		c.StripeBaseURL = v
	}
	if v := os.Getenv("FOODDASH_CURRENCY"); v != "" {
		c.Currency = v
	}
	if v := os.Getenv("FOODDASH_TAX_RATE"); v != "" {
		c.TaxRate = v
	}
	if v := os.Getenv("FOODDASH_DELIVERY_FEE"); v != "" {
		c.DeliveryFee = v
	}
	if v := os.Getenv("FOODDASH_PREP_WINDOW_MINUTES"); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			c.PrepWindowMinutes = m
		}
	}
	if v := os.Getenv("FOODDASH_LOG_JSON"); v != "" {
		switch v {
		case "1", "true", "TRUE":
			c.LogJSON = true
		case "0", "false", "FALSE":
			c.LogJSON = false
		}
	}
	return c
}
