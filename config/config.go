package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all configuration for the billing service.
type Config struct {
	Port             string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	// Payment gateway
	GatewayProvider      string // "stripe" or "pagolink"
	StripeSecretKey      string
	StripeWebhookKey     string
	PagolinkBaseURL      string
	PagolinkAPIKey       string
	PagolinkWebhookKey   string
	GatewayTimeout       time.Duration
	CheckoutSuccessURL   string
	CheckoutCancelURL    string

	// Service catalog, used to price orders
	CatalogBaseURL string

	// Kafka event fan-out (empty brokers disables publishing)
	KafkaBrokers    string
	OrderEventTopic string

	// Expiry sweeper; 0 disables the in-process ticker (an external
	// scheduler can still hit the HTTP trigger)
	SweepInterval time.Duration
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8088"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),

		GatewayProvider:    getEnv("GATEWAY_PROVIDER", "stripe"),
		StripeSecretKey:    os.Getenv("STRIPE_API_KEY"),
		StripeWebhookKey:   os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PagolinkBaseURL:    os.Getenv("PAGOLINK_BASE_URL"),
		PagolinkAPIKey:     os.Getenv("PAGOLINK_API_KEY"),
		PagolinkWebhookKey: os.Getenv("PAGOLINK_WEBHOOK_SECRET"),
		GatewayTimeout:     getEnvDuration("GATEWAY_TIMEOUT", 10*time.Second),
		CheckoutSuccessURL: getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/checkout/success"),
		CheckoutCancelURL:  getEnv("CHECKOUT_CANCEL_URL", "http://localhost:3000/checkout/cancel"),

		CatalogBaseURL: getEnv("CATALOG_BASE_URL", "http://catalog-service:8081"),

		KafkaBrokers:    os.Getenv("KAFKA_BROKERS"),
		OrderEventTopic: getEnv("ORDER_EVENT_TOPIC", "order-events"),

		SweepInterval: getEnvDuration("SWEEP_INTERVAL", 0),
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" || cfg.PostgresHost == "" {
		return nil, fmt.Errorf("database config incomplete")
	}

	switch cfg.GatewayProvider {
	case "stripe":
		if cfg.StripeSecretKey == "" || cfg.StripeWebhookKey == "" {
			return nil, fmt.Errorf("stripe gateway selected but STRIPE_API_KEY/STRIPE_WEBHOOK_SECRET not set")
		}
	case "pagolink":
		if cfg.PagolinkBaseURL == "" || cfg.PagolinkAPIKey == "" || cfg.PagolinkWebhookKey == "" {
			return nil, fmt.Errorf("pagolink gateway selected but PAGOLINK_* vars not set")
		}
	default:
		return nil, fmt.Errorf("unknown GATEWAY_PROVIDER %q", cfg.GatewayProvider)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
