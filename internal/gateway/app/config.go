package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/evamind/gateway/internal/gateway/service"
	"github.com/go-playground/validator/v10"
)

// Rate limiter backends.
const (
	BackendLedger = "ledger"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// minProdSecretLength is the shortest signing secret accepted in prod.
const minProdSecretLength = 32

var ErrInsecureConfig = errors.New("insecure production configuration")

type Config struct {
	Env                  string        `validate:"oneof=dev test staging prod"` // Environment (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        `validate:"oneof=json text"` // Log format (default: json)
	Port                 int           `validate:"min=1,max=65535"` // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration `validate:"gt=0"`            // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration `validate:"gt=0"`            // Housekeeping interval (default: 1m)
	PepperFile           string        // Optional: pepper for Argon2id client secret hashes

	Issuer                 string        `validate:"required"` // Token issuer claim
	SigningSecret          string        // HS256 secret; generated per process outside prod when empty
	PreviousSigningSecrets []string      // Retired secrets still accepted for verification
	TokenTTL               time.Duration `validate:"gt=0"` // Access token lifetime (default: 1h)

	DownstreamURL          string        `validate:"required,url"` // Resource service base URL
	DownstreamTimeout      time.Duration `validate:"gt=0"`         // Per-attempt deadline (default: 3s)
	DownstreamRetryBackoff time.Duration `validate:"gte=0"`        // Pause before the retry of a safe call (default: 100ms)
	HealthProbeTimeout     time.Duration `validate:"gt=0"`         // Deadline for each health probe (default: 2s)

	DatabaseURL string `validate:"required"` // SQLite file path or postgres:// URL

	RateLimitBackend string        `validate:"oneof=ledger memory redis"` // Counter backend (default: ledger)
	RateLimitWindow  time.Duration `validate:"gt=0"`                      // Sliding window (default: 60s)
	RedisAddr        string        `validate:"required_if=RateLimitBackend redis"`
	RedisPassword    string
	RedisDB          int `validate:"gte=0"`

	StatusCacheTTL time.Duration `validate:"gte=0"` // Revocation/client status cache, capped at 5s (default: 0, disabled)
	AuditBuffer    int           `validate:"gte=0"` // Async ledger queue, 0 writes inline (default: 1024)
	BootstrapToken string        // Optional: enables POST /v1/bootstrap
}

func LoadConfig() Config {
	env := getEnvOrDefault("ENV", "dev")

	// Production gets no fallbacks for where data lives or goes.
	downstream, database := os.Getenv("GATEWAY_DOWNSTREAM_URL"), os.Getenv("GATEWAY_DATABASE_URL")
	if env != "prod" {
		downstream = getEnvOrDefault("GATEWAY_DOWNSTREAM_URL", "http://localhost:8000")
		database = getEnvOrDefault("GATEWAY_DATABASE_URL", "gateway.db")
	}

	return Config{
		Env:                  env,
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Minute),
		PepperFile:           os.Getenv("PEPPER_FILE"),

		Issuer:                 getEnvOrDefault("GATEWAY_ISSUER", "evamind-gateway"),
		SigningSecret:          os.Getenv("GATEWAY_SIGNING_SECRET"),
		PreviousSigningSecrets: splitList(os.Getenv("GATEWAY_PREVIOUS_SIGNING_SECRETS")),
		TokenTTL:               getEnvDurationOrDefault("GATEWAY_TOKEN_TTL", time.Hour),

		DownstreamURL:          downstream,
		DownstreamTimeout:      getEnvDurationOrDefault("GATEWAY_DOWNSTREAM_TIMEOUT", service.DefaultDownstreamTimeout),
		DownstreamRetryBackoff: getEnvDurationOrDefault("GATEWAY_DOWNSTREAM_RETRY_BACKOFF", service.DefaultRetryBackoff),
		HealthProbeTimeout:     getEnvDurationOrDefault("GATEWAY_HEALTH_PROBE_TIMEOUT", service.DefaultHealthProbeTimeout),

		DatabaseURL: database,

		RateLimitBackend: strings.ToLower(getEnvOrDefault("GATEWAY_RATE_LIMIT_BACKEND", BackendLedger)),
		RateLimitWindow:  getEnvDurationOrDefault("GATEWAY_RATE_LIMIT_WINDOW", service.DefaultRateLimitWindow),
		RedisAddr:        os.Getenv("GATEWAY_REDIS_ADDR"),
		RedisPassword:    os.Getenv("GATEWAY_REDIS_PASSWORD"),
		RedisDB:          getEnvIntOrDefault("GATEWAY_REDIS_DB", 0),

		StatusCacheTTL: getEnvDurationOrDefault("GATEWAY_STATUS_CACHE_TTL", 0),
		AuditBuffer:    getEnvIntOrDefault("GATEWAY_AUDIT_BUFFER", service.DefaultAuditBuffer),
		BootstrapToken: os.Getenv("GATEWAY_BOOTSTRAP_TOKEN"),
	}
}

// Validate checks field constraints and the production rules.
func (c Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.StatusCacheTTL > service.MaxStatusCacheTTL {
		return fmt.Errorf("invalid configuration: status cache ttl %s exceeds %s", c.StatusCacheTTL, service.MaxStatusCacheTTL)
	}

	if c.Env == "prod" {
		if len(c.SigningSecret) < minProdSecretLength {
			return fmt.Errorf("%w: GATEWAY_SIGNING_SECRET must be at least %d bytes", ErrInsecureConfig, minProdSecretLength)
		}
		for _, s := range c.PreviousSigningSecrets {
			if len(s) < minProdSecretLength {
				return fmt.Errorf("%w: previous signing secrets must be at least %d bytes", ErrInsecureConfig, minProdSecretLength)
			}
		}
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
