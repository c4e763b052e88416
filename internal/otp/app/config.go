package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Strategy      string        // Optional: code strategy (random, totp) (default: random)
	CodeTTL       time.Duration // Optional: random code validity window (default: 120s)
	TOTPPeriod    time.Duration // Optional: TOTP step duration (default: 30s)
	TOTPBackSteps int           // Optional: accepted steps behind current (default: 1)

	Delivery        string        // Optional: delivery gateway (telegram, relay) (default: telegram)
	TelegramToken   string        // Required for telegram delivery: bot API token
	RelayURL        string        // Required for relay delivery: relay endpoint URL
	DeliveryTimeout time.Duration // Optional: per-delivery HTTP timeout (default: 5s)

	Issuer          string        // Optional: issuer for TOTP provisioning and assertions (default: otpgate)
	AssertionSecret string        // Required: HS256 key for step-up assertions, shared with the host flow
	AssertionTTL    time.Duration // Optional: step-up assertion lifetime (default: 5m)
	ChallengeTTL    time.Duration // Optional: challenge session lifetime (default: 10m)

	DatabaseFile  string // Optional: path to SQLite database file (default: ./otpgate.db)
	MasterKeyPath string // Optional: path to master encryption key file (for TOTP secrets at rest)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Strategy:      getEnvOrDefault("OTPGATE_STRATEGY", "random"),
		CodeTTL:       getEnvDurationOrDefault("OTPGATE_CODE_TTL", 120*time.Second),
		TOTPPeriod:    getEnvDurationOrDefault("OTPGATE_TOTP_PERIOD", 30*time.Second),
		TOTPBackSteps: getEnvIntOrDefault("OTPGATE_TOTP_BACK_STEPS", 1),

		Delivery:        getEnvOrDefault("OTPGATE_DELIVERY", "telegram"),
		TelegramToken:   os.Getenv("OTPGATE_TELEGRAM_TOKEN"),
		RelayURL:        os.Getenv("OTPGATE_RELAY_URL"),
		DeliveryTimeout: getEnvDurationOrDefault("OTPGATE_DELIVERY_TIMEOUT", 5*time.Second),

		Issuer:          getEnvOrDefault("OTPGATE_ISSUER", "otpgate"),
		AssertionSecret: os.Getenv("OTPGATE_ASSERTION_SECRET"),
		AssertionTTL:    getEnvDurationOrDefault("OTPGATE_ASSERTION_TTL", 5*time.Minute),
		ChallengeTTL:    getEnvDurationOrDefault("OTPGATE_CHALLENGE_TTL", 10*time.Minute),

		DatabaseFile:  getEnvOrDefault("OTPGATE_DATABASE_FILE", "otpgate.db"),
		MasterKeyPath: os.Getenv("OTPGATE_MASTER_KEY_PATH"),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
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

	// Try parsing as integer seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
