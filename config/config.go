package config

import (
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the label service and its front ends
type Config struct {
	// Server configuration
	Port           string
	AllowedOrigins []string
	MaxUploadBytes int64

	// Rate limiting of the labeling endpoints
	RateLimitPerMinute int
	RateLimitBurst     int

	// Vision configuration
	VisionProvider   string // "google" or "stub"
	VisionEndpoint   string
	VisionMaxResults int
	// VisionSharedClient keeps one client for the process lifetime instead of one per request.
	VisionSharedClient bool

	// Image preprocessing; 0 disables it
	MaxImageDimension int
	JPEGQuality       int

	// RabbitMQ configuration; events are disabled when Host is empty
	RabbitMQ RabbitMQConfig

	// Logging
	LogLevel  string
	LogFormat string

	ShutdownTimeout time.Duration
}

// RabbitMQConfig holds the broker settings for label events
type RabbitMQConfig struct {
	Host       string
	Port       string
	User       string
	Password   string
	Exchange   string
	RoutingKey string
}

// AMQPURL returns the broker URL, or "" when no broker is configured.
func (r RabbitMQConfig) AMQPURL() string {
	if r.Host == "" {
		return ""
	}
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(r.User, r.Password),
		Host:   net.JoinHostPort(r.Host, r.Port),
		Path:   "/",
	}
	return u.String()
}

// Load loads configuration from a .env file, if present, and environment variables
func Load() *Config {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getStringSliceEnv("ALLOWED_ORIGINS", "*"),
		MaxUploadBytes: int64(getIntEnv("MAX_UPLOAD_BYTES", 20<<20)),

		RateLimitPerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 60),
		RateLimitBurst:     getIntEnv("RATE_LIMIT_BURST", 10),

		VisionProvider:     strings.ToLower(getEnv("VISION_PROVIDER", "google")),
		VisionEndpoint:     getEnv("VISION_ENDPOINT", ""),
		VisionMaxResults:   getIntEnv("VISION_MAX_RESULTS", 0),
		VisionSharedClient: getBoolEnv("VISION_SHARED_CLIENT", false),

		MaxImageDimension: getIntEnv("MAX_IMAGE_DIMENSION", 0),
		JPEGQuality:       getIntEnv("JPEG_QUALITY", 85),

		RabbitMQ: RabbitMQConfig{
			Host:       getEnv("AMQP_HOST", ""),
			Port:       getEnv("AMQP_PORT", "5672"),
			User:       getEnv("AMQP_USER", "guest"),
			Password:   getEnv("AMQP_PASSWORD", "guest"),
			Exchange:   getEnv("RABBITMQ_EXCHANGE", "plantapp"),
			RoutingKey: getEnv("RABBITMQ_LABELED_ROUTING_KEY", "image.labeled"),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// getStringSliceEnv gets a comma-separated environment variable as a slice
func getStringSliceEnv(key, defaultValue string) []string {
	value := getEnv(key, defaultValue)
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
