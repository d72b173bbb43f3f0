package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mustafamuse/irshad-center-sub014/internal/program"
)

// StripeCredentials holds one program's provider identity. The two
// programs are billed through separate Stripe accounts and must never
// share a secret or key.
type StripeCredentials struct {
	WebhookSecret string
	APIKey        string
}

// TracingConfig configures the OTLP exporter.
type TracingConfig struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
}

// Config is the process configuration, sourced from the environment.
type Config struct {
	Environment string
	ServiceName string
	HTTPAddr    string
	DatabaseDSN string

	Dugsi StripeCredentials
	Mahad StripeCredentials

	// GraceMaxDuration bounds how long a past_due subscription is treated
	// as in good standing before operators are alerted. The engine never
	// downgrades on its own; provider events drive every transition.
	GraceMaxDuration time.Duration

	Tracing TracingConfig
}

var (
	ErrMissingDatabaseDSN = errors.New("missing_database_dsn")
	ErrMissingCredentials = errors.New("missing_stripe_credentials")
)

// Load reads configuration from the environment. A local .env file is
// honored when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment: envOr("ENVIRONMENT", "development"),
		ServiceName: envOr("SERVICE_NAME", "irshad-billing-sync"),
		HTTPAddr:    envOr("HTTP_ADDR", ":8080"),
		DatabaseDSN: strings.TrimSpace(os.Getenv("DATABASE_DSN")),
		Dugsi: StripeCredentials{
			WebhookSecret: strings.TrimSpace(os.Getenv("STRIPE_DUGSI_WEBHOOK_SECRET")),
			APIKey:        strings.TrimSpace(os.Getenv("STRIPE_DUGSI_API_KEY")),
		},
		Mahad: StripeCredentials{
			WebhookSecret: strings.TrimSpace(os.Getenv("STRIPE_MAHAD_WEBHOOK_SECRET")),
			APIKey:        strings.TrimSpace(os.Getenv("STRIPE_MAHAD_API_KEY")),
		},
		GraceMaxDuration: envDurationOr("GRACE_MAX_DURATION", 14*24*time.Hour),
		Tracing: TracingConfig{
			Enabled:          envBoolOr("TRACING_ENABLED", false),
			ExporterEndpoint: strings.TrimSpace(os.Getenv("OTLP_ENDPOINT")),
			ExporterProtocol: envOr("OTLP_PROTOCOL", "grpc"),
			SamplingRatio:    envFloatOr("TRACING_SAMPLING_RATIO", 0.1),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.DatabaseDSN == "" {
		return ErrMissingDatabaseDSN
	}
	for _, p := range program.All() {
		creds, ok := c.Credentials(p)
		if !ok || creds.WebhookSecret == "" || creds.APIKey == "" {
			return fmt.Errorf("%w: %s", ErrMissingCredentials, p)
		}
	}
	return nil
}

// Credentials returns the provider identity for a program. Lookup is by
// explicit program value; there is no fallback between programs.
func (c Config) Credentials(p program.Program) (StripeCredentials, bool) {
	switch p {
	case program.Dugsi:
		return c.Dugsi, true
	case program.Mahad:
		return c.Mahad, true
	default:
		return StripeCredentials{}, false
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envBoolOr(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloatOr(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
