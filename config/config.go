// Package config provides configuration management for the dashboard service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/revdash/revdash/internal/service"
)

// Config holds the complete application configuration.
type Config struct {
	Server     ServerConfig
	Auth       AuthConfig
	GitLab     GitLabConfig
	Jira       JiraConfig
	Cache      CacheConfig
	Thresholds ThresholdConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string
	RateLimit       int
	RateWindow      time.Duration
	Timeout         time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	SwaggerUser     string
	SwaggerPass     string
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKeys map[string]bool
}

// GitLabConfig holds the merge-request API client configuration.
type GitLabConfig struct {
	BaseURL       string
	Token         string
	GroupID       int
	ParentGroupID int
	TeamUserIDs   []int
	MaxRetries    int
	RetryDelay    time.Duration
	// Circuit breaker configuration
	CircuitBreakerFailureThreshold int
	CircuitBreakerSuccessThreshold int
	CircuitBreakerTimeout          time.Duration
}

// JiraConfig holds the issue-tracker API client configuration.
type JiraConfig struct {
	BaseURL    string
	Token      string
	MaxRetries int
	RetryDelay time.Duration
}

// CacheConfig holds per-category cache TTLs.
type CacheConfig struct {
	GitLabTTL    time.Duration
	APITTL       time.Duration
	ResponseTTL  time.Duration
	SingleFlight bool
}

// ThresholdConfig holds the hygiene classification thresholds in days.
type ThresholdConfig struct {
	TooOldDays        int
	NotUpdatedDays    int
	PendingReviewDays int
}

// Load creates a Config from environment variables. A .env file in the
// working directory is picked up first when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			RateLimit:       getEnvInt("RATE_LIMIT", 100),
			RateWindow:      getEnvDuration("RATE_WINDOW", time.Minute),
			Timeout:         getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			CORSOrigins:     parseCORSOrigins(os.Getenv("CORS_ORIGINS")),
			SwaggerUser:     getEnv("SWAGGER_USER", ""),
			SwaggerPass:     getEnv("SWAGGER_PASS", ""),
		},
		Auth: AuthConfig{
			APIKeys: parseAPIKeys(os.Getenv("API_KEYS")),
		},
		GitLab: GitLabConfig{
			BaseURL:                        getEnv("GITLAB_BASE_URL", "https://gitlab.com/api/v4"),
			Token:                          getEnv("GITLAB_TOKEN", ""),
			GroupID:                        getEnvInt("GITLAB_GROUP_ID", 0),
			ParentGroupID:                  getEnvInt("GITLAB_PARENT_GROUP_ID", 0),
			TeamUserIDs:                    service.ParseTeamUserIDs(os.Getenv("TEAM_USER_IDS")),
			MaxRetries:                     getEnvInt("GITLAB_MAX_RETRIES", 3),
			RetryDelay:                     getEnvDuration("GITLAB_RETRY_DELAY", time.Second),
			CircuitBreakerFailureThreshold: getEnvInt("CIRCUIT_BREAKER_FAILURE_THRESHOLD", 5),
			CircuitBreakerSuccessThreshold: getEnvInt("CIRCUIT_BREAKER_SUCCESS_THRESHOLD", 2),
			CircuitBreakerTimeout:          getEnvDuration("CIRCUIT_BREAKER_TIMEOUT", 30*time.Second),
		},
		Jira: JiraConfig{
			BaseURL:    getEnv("JIRA_BASE_URL", ""),
			Token:      getEnv("JIRA_TOKEN", ""),
			MaxRetries: getEnvInt("JIRA_MAX_RETRIES", 3),
			RetryDelay: getEnvDuration("JIRA_RETRY_DELAY", time.Second),
		},
		Cache: CacheConfig{
			GitLabTTL:    getEnvDuration("CACHE_GITLAB_TTL", 5*time.Minute),
			APITTL:       getEnvDuration("CACHE_API_TTL", 10*time.Minute),
			ResponseTTL:  getEnvDuration("CACHE_RESPONSE_TTL", time.Minute),
			SingleFlight: getEnvBool("CACHE_SINGLE_FLIGHT", false),
		},
		Thresholds: ThresholdConfig{
			TooOldDays:        getEnvInt("THRESHOLD_TOO_OLD_DAYS", service.DefaultTooOldDays),
			NotUpdatedDays:    getEnvInt("THRESHOLD_NOT_UPDATED_DAYS", service.DefaultNotUpdatedDays),
			PendingReviewDays: getEnvInt("THRESHOLD_PENDING_REVIEW_DAYS", service.DefaultPendingReviewDays),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func parseAPIKeys(s string) map[string]bool {
	if s == "" {
		return nil
	}
	keys := strings.Split(s, ",")
	result := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			result[k] = true
		}
	}
	return result
}

func parseCORSOrigins(s string) []string {
	// Default origins for local development
	defaults := []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
	}
	if s == "" {
		return defaults
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts)+len(defaults))
	result = append(result, defaults...)
	for _, p := range parts {
		if origin := strings.TrimSpace(p); origin != "" {
			result = append(result, origin)
		}
	}
	return result
}
