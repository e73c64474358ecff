// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port   string
	DBPath string
	Chat   ChatConfig
	Solver SolverConfig
}

// ChatConfig describes the messenger Bot API connection.
type ChatConfig struct {
	Token          string
	BaseURL        string
	RequestTimeout time.Duration
	MediaTimeout   time.Duration
	PollTimeout    time.Duration
}

// SolverConfig describes the numerical solver backend connection.
type SolverConfig struct {
	BaseURL           string
	RequestTimeout    time.Duration
	PollInterval      time.Duration
	CompletionTimeout time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:   getEnv("PORT", "8080"),
		DBPath: getEnv("DB_PATH", "./data/solvebot.db"),
		Chat: ChatConfig{
			Token:          getEnv("BOT_TOKEN", ""),
			BaseURL:        getEnv("CHAT_API_URL", "https://api.telegram.org"),
			RequestTimeout: getEnvDuration("CHAT_REQUEST_TIMEOUT", 10*time.Second),
			MediaTimeout:   getEnvDuration("CHAT_MEDIA_TIMEOUT", 60*time.Second),
			PollTimeout:    getEnvDuration("CHAT_POLL_TIMEOUT", 30*time.Second),
		},
		Solver: SolverConfig{
			BaseURL:           getEnv("SOLVER_URL", ""),
			RequestTimeout:    getEnvDuration("SOLVER_REQUEST_TIMEOUT", 15*time.Second),
			PollInterval:      getEnvDuration("SOLVER_POLL_INTERVAL", 2*time.Second),
			CompletionTimeout: getEnvDuration("SOLVER_COMPLETION_TIMEOUT", 5*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Chat.Token == "" {
		return fmt.Errorf("BOT_TOKEN cannot be empty")
	}
	if c.Chat.BaseURL == "" {
		return fmt.Errorf("CHAT_API_URL cannot be empty")
	}
	if c.Solver.BaseURL == "" {
		return fmt.Errorf("SOLVER_URL cannot be empty")
	}
	if c.Solver.PollInterval <= 0 {
		return fmt.Errorf("SOLVER_POLL_INTERVAL must be > 0")
	}
	if c.Solver.CompletionTimeout <= 0 {
		return fmt.Errorf("SOLVER_COMPLETION_TIMEOUT must be > 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	trimmed := strings.TrimSpace(value)
	if d, err := time.ParseDuration(trimmed); err == nil {
		return d
	}
	// Bare numbers are taken as seconds.
	if n, err := strconv.Atoi(trimmed); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
