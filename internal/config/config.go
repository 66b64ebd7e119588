package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Slack API configuration
	Slack SlackConfig

	// Export configuration
	Export ExportConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// SlackConfig holds Slack API client settings
type SlackConfig struct {
	BotToken       string
	SigningSecret  string
	BaseURL        string
	RequestTimeout time.Duration

	// MaxAttempts bounds retries for rate-limited and transient failures.
	MaxAttempts int

	// Page sizes for the cursor-paginated endpoints.
	MembersPageSize int
	UsersPageSize   int
	HistoryPageSize int
}

// ExportConfig holds default export behavior
type ExportConfig struct {
	IncludeBots        bool
	IncludeDeactivated bool
	ScanHistory        bool
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 300*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Slack: DefaultSlackConfig(),
		Export: ExportConfig{
			IncludeBots:        getBoolEnv("EXPORT_INCLUDE_BOTS", false),
			IncludeDeactivated: getBoolEnv("EXPORT_INCLUDE_DEACTIVATED", false),
			ScanHistory:        getBoolEnv("EXPORT_SCAN_HISTORY", true),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultSlackConfig returns Slack client settings from the environment,
// with page sizes matching the API's documented maximums.
func DefaultSlackConfig() SlackConfig {
	return SlackConfig{
		BotToken:        getEnv("SLACK_BOT_TOKEN", os.Getenv("SLACK_TOKEN")),
		SigningSecret:   getEnv("SLACK_SIGNING_SECRET", ""),
		BaseURL:         getEnv("SLACK_API_BASE_URL", "https://slack.com/api"),
		RequestTimeout:  getDurationEnv("SLACK_REQUEST_TIMEOUT", 30*time.Second),
		MaxAttempts:     getIntEnv("SLACK_MAX_ATTEMPTS", 8),
		MembersPageSize: getIntEnv("SLACK_MEMBERS_PAGE_SIZE", 1000),
		UsersPageSize:   getIntEnv("SLACK_USERS_PAGE_SIZE", 200),
		HistoryPageSize: getIntEnv("SLACK_HISTORY_PAGE_SIZE", 200),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Slack.BotToken == "" {
		return fmt.Errorf("SLACK_BOT_TOKEN is required")
	}
	if c.Slack.MaxAttempts < 1 {
		return fmt.Errorf("SLACK_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
