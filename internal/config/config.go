package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ConflictScope controls how booking overlap is evaluated.
type ConflictScope string

const (
	// ConflictScopeAgent treats any two overlapping active bookings of the
	// same agency as a conflict, regardless of property.
	ConflictScopeAgent ConflictScope = "agent"
	// ConflictScopeProperty only flags overlaps on the same property.
	ConflictScopeProperty ConflictScope = "property"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	AdminJWTSecret string

	// Booking policy
	BookingDayStart        string // "09:00"
	BookingDayEnd          string // "18:00"
	SlotGranularityMinutes int
	DefaultDurationMinutes int
	ConflictScope          ConflictScope
	BookingLockTTL         time.Duration
	BookingLockRetry       time.Duration

	// HTTP
	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int

	// Webhook property search
	PropertySearchLimit int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		BookingDayStart:        getEnv("BOOKING_DAY_START", "09:00"),
		BookingDayEnd:          getEnv("BOOKING_DAY_END", "18:00"),
		SlotGranularityMinutes: getEnvAsInt("SLOT_GRANULARITY_MINUTES", 30),
		DefaultDurationMinutes: getEnvAsInt("DEFAULT_BOOKING_DURATION_MINUTES", 30),
		ConflictScope:          conflictScope(getEnv("BOOKING_CONFLICT_SCOPE", "agent")),
		BookingLockTTL:         getEnvAsDuration("BOOKING_LOCK_TTL", 5*time.Second),
		BookingLockRetry:       getEnvAsDuration("BOOKING_LOCK_RETRY", 50*time.Millisecond),

		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "")),
		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 20),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 40),

		PropertySearchLimit: getEnvAsInt("PROPERTY_SEARCH_LIMIT", 5),
	}
}

func conflictScope(raw string) ConflictScope {
	if strings.EqualFold(strings.TrimSpace(raw), string(ConflictScopeProperty)) {
		return ConflictScopeProperty
	}
	return ConflictScopeAgent
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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
