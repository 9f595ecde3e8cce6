// internal/config/config.go
// Centralized configuration management
// Loads from environment variables with sensible defaults

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Local HTTP surface
	Port        string
	Environment string

	// Backend API (request/response contract)
	APIBaseURL string

	// Event channel
	SocketURL      string
	SocketTimeout  time.Duration
	MaxMessageSize int64

	// Security
	JWTSecret string

	// Local durable storage
	DataDir string

	// Chat behaviour
	MessagePreviewLength int
	TypingIdleTimeout    time.Duration

	// Matchmaking
	RevealInterval time.Duration
	MinAge         int
	MaxAge         int

	// Notifications
	NotificationLogCap int
}

// Load reads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Backend API
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080/api/v1"),

		// Event channel
		SocketURL:      getEnv("SOCKET_URL", "ws://localhost:8080/ws"),
		SocketTimeout:  getEnvDuration("SOCKET_TIMEOUT", "10s"),
		MaxMessageSize: int64(getEnvInt("MAX_MESSAGE_SIZE", 512*1024)),

		// Security
		JWTSecret: getEnv("JWT_SECRET", "your-super-secret-key-change-this-in-production"),

		// Storage
		DataDir: getEnv("DATA_DIR", "./data"),

		// Chat
		MessagePreviewLength: getEnvInt("MESSAGE_PREVIEW_LENGTH", 120),
		TypingIdleTimeout:    getEnvDuration("TYPING_IDLE_TIMEOUT", "1200ms"),

		// Matchmaking
		RevealInterval: getEnvDuration("REVEAL_INTERVAL", "4500ms"),
		MinAge:         getEnvInt("MIN_AGE", 13),
		MaxAge:         getEnvInt("MAX_AGE", 99),

		// Notifications
		NotificationLogCap: getEnvInt("NOTIFICATION_LOG_CAP", 50),
	}

	return cfg
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWTSecret == "your-super-secret-key-change-this-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret must be changed for production")
	}

	if c.APIBaseURL == "" {
		return fmt.Errorf("API base URL is required")
	}

	if c.SocketURL == "" {
		return fmt.Errorf("socket URL is required")
	}

	if c.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}

	if c.MinAge < 13 || c.MinAge > c.MaxAge {
		return fmt.Errorf("invalid age range configuration")
	}

	if c.RevealInterval <= 0 {
		return fmt.Errorf("reveal interval must be positive")
	}

	if c.TypingIdleTimeout <= 0 {
		return fmt.Errorf("typing idle timeout must be positive")
	}

	if c.NotificationLogCap < 1 {
		return fmt.Errorf("notification log cap must be positive")
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Helper functions

// getEnv gets a string value from environment with a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment with a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration value from environment with a default
func getEnvDuration(key string, defaultValue string) time.Duration {
	value := getEnv(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		// If parsing fails, fall back to the default
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
