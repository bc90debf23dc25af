package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	Environment string
	LogLevel    string

	SchoolAPIBaseURL string
	SchoolAPIToken   string
	SchoolAPITimeout time.Duration

	SinkTimeout     time.Duration
	DefaultPageSize int
	WorkflowTTL     time.Duration
	RosterCacheTTL  time.Duration

	Auth   AuthConfig
	Events EventConfig
}

// AuthConfig configures Casdoor token verification
type AuthConfig struct {
	Enabled          bool
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

func LoadConfig() (*Config, error) {
	// a missing .env is normal outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		SchoolAPIBaseURL: getEnv("SCHOOL_API_BASE_URL", "http://localhost:3000/api"),
		SchoolAPIToken:   getEnv("SCHOOL_API_TOKEN", ""),
		SchoolAPITimeout: getEnvDuration("SCHOOL_API_TIMEOUT", 20*time.Second),

		SinkTimeout:     getEnvDuration("SINK_TIMEOUT", 15*time.Second),
		DefaultPageSize: getEnvInt("DEFAULT_PAGE_SIZE", 10),
		WorkflowTTL:     getEnvDuration("WORKFLOW_TTL", 12*time.Hour),
		RosterCacheTTL:  getEnvDuration("ROSTER_CACHE_TTL", 5*time.Minute),

		Auth: AuthConfig{
			Enabled:          getEnvBool("AUTH_ENABLED", false),
			Endpoint:         getEnv("CASDOOR_ENDPOINT", ""),
			ClientID:         getEnv("CASDOOR_CLIENT_ID", ""),
			ClientSecret:     getEnv("CASDOOR_CLIENT_SECRET", ""),
			Certificate:      getEnv("CASDOOR_CERTIFICATE", ""),
			OrganizationName: getEnv("CASDOOR_ORGANIZATION", ""),
			ApplicationName:  getEnv("CASDOOR_APPLICATION", ""),
		},
		Events: loadEventConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.SchoolAPIBaseURL == "" {
		return errors.New("SCHOOL_API_BASE_URL is required")
	}
	if c.DefaultPageSize < 1 || c.DefaultPageSize > 100 {
		return fmt.Errorf("DEFAULT_PAGE_SIZE must be between 1 and 100, got %d", c.DefaultPageSize)
	}
	if c.Auth.Enabled && (c.Auth.Endpoint == "" || c.Auth.Certificate == "") {
		return errors.New("CASDOOR_ENDPOINT and CASDOOR_CERTIFICATE are required when AUTH_ENABLED is true")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return parsed
}
