package config

import (
	"os"
	"strconv"
	"time"

	"travelease/internal/external"
	"travelease/internal/messaging"
	"travelease/internal/session"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// JWT secret shared with the booking backend; used only to read the
	// subject claim, the raw bearer token is forwarded as-is
	JWTSecret string

	// Idle workflows are discarded after this long
	WorkflowIdleTTL time.Duration

	Booking external.BookingConfig
	Payment external.PaymentConfig
	NATS    messaging.Config
	Session session.Config
}

// Load reads the configuration from environment variables. A .env file is
// honored when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		JWTSecret: getEnv("JWT_SECRET", "default-insecure-secret-only-for-development"),

		WorkflowIdleTTL: time.Duration(getEnvInt("WORKFLOW_IDLE_TTL_MIN", 30)) * time.Minute,

		Booking: external.BookingConfig{
			BaseURL: getEnv("BOOKING_SERVICE_URL", "http://localhost:4000"),
			Timeout: time.Duration(getEnvInt("BOOKING_TIMEOUT_SEC", 30)) * time.Second,
		},

		Payment: external.PaymentConfig{
			BaseURL:       getEnv("PAYMENT_GATEWAY_URL", "http://localhost:4100"),
			HostedPageURL: getEnv("PAYMENT_HOSTED_PAGE_URL", "https://pay.travelease.example/checkout"),
			Timeout:       time.Duration(getEnvInt("PAYMENT_TIMEOUT_SEC", 30)) * time.Second,
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "travelease"),
			ClientID:  getEnv("NATS_CLIENT_ID", "booking-workflow"),
		},

		Session: session.Config{
			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			ProfileTTL:    time.Duration(getEnvInt("PROFILE_CACHE_TTL_MIN", 5)) * time.Minute,
		},
	}
}

// getEnv returns the environment variable value or the default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
