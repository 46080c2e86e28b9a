package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string

	// Storage selects the appointment/patient backend: memory, postgres or
	// dynamo.
	Storage     string
	DatabaseURL string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	AppointmentsTable   string
	DoctorsTable        string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	BasketHoldTTL    time.Duration
	SweepSchedule    string
	SweepGracePeriod time.Duration

	AllowSimulatedPayments bool
	PaymentDelay           time.Duration

	AdminJWTSecret string
	CORSOrigins    []string

	GridStartHour int
	GridHours     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		Storage:     strings.ToLower(strings.TrimSpace(getEnv("STORAGE", "memory"))),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		AppointmentsTable:   getEnv("APPOINTMENTS_TABLE", "appointments"),
		DoctorsTable:        getEnv("DOCTORS_TABLE", "doctors"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		BasketHoldTTL:    getEnvAsDuration("BASKET_HOLD_TTL", 10*time.Minute),
		SweepSchedule:    getEnv("SWEEP_SCHEDULE", "@every 1m"),
		SweepGracePeriod: getEnvAsDuration("SWEEP_GRACE_PERIOD", 10*time.Minute),

		AllowSimulatedPayments: getEnvAsBool("ALLOW_SIMULATED_PAYMENTS", false),
		PaymentDelay:           getEnvAsDuration("PAYMENT_DELAY", 2*time.Second),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "*")),

		GridStartHour: getEnvAsInt("GRID_START_HOUR", 8),
		GridHours:     getEnvAsInt("GRID_HOURS", 9),
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
