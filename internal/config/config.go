package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds server-deployment overrides read from the environment.
// Zero values mean "not set"; ApplyEnv overlays only what is present, so
// a laptop install with a bare environment keeps its config.yaml values.
type Config struct {
	// Server
	Port  int
	Debug bool

	// Leaderboard backends
	DatabaseURL string
	RabbitMQURL string

	// Evaluation providers
	GeminiAPIKey string
	GeminiModels string // comma-separated preference order
	TextPoolURL  string

	// Content
	ContentPath string

	// Scheduler
	RegenIntervalSeconds int
}

// Load reads configuration overrides from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                 getEnvInt("PORT", 0),
		Debug:                getEnvBool("DEBUG", false),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		RabbitMQURL:          getEnv("RABBITMQ_URL", ""),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		GeminiModels:         getEnv("GEMINI_MODELS", ""),
		TextPoolURL:          getEnv("TEXTPOOL_URL", ""),
		ContentPath:          getEnv("CONTENT_PATH", ""),
		RegenIntervalSeconds: getEnvInt("REGEN_INTERVAL_SECONDS", 0),
	}

	if cfg.RegenIntervalSeconds < 0 {
		return nil, fmt.Errorf("REGEN_INTERVAL_SECONDS must be positive")
	}
	if cfg.Port < 0 {
		return nil, fmt.Errorf("PORT must be positive")
	}

	return cfg, nil
}

// ApplyEnv overlays server-deployment environment variables onto a local
// config. Setting both leaderboard backends enables the leaderboard.
func (c *LocalConfig) ApplyEnv(env *Config) {
	if env == nil {
		return
	}
	if env.Port > 0 {
		c.Daemon.Port = env.Port
	}
	if env.Debug {
		c.Daemon.LogLevel = "debug"
	}
	if env.DatabaseURL != "" {
		c.Leaderboard.DatabaseURL = env.DatabaseURL
	}
	if env.RabbitMQURL != "" {
		c.Leaderboard.RabbitMQURL = env.RabbitMQURL
	}
	if env.DatabaseURL != "" && env.RabbitMQURL != "" {
		c.Leaderboard.Enabled = true
	}
	if p := c.Evaluation.Providers["gemini"]; p != nil {
		if env.GeminiAPIKey != "" {
			p.APIKey = env.GeminiAPIKey
		}
		if env.GeminiModels != "" {
			var models []string
			for _, m := range strings.Split(env.GeminiModels, ",") {
				if m = strings.TrimSpace(m); m != "" {
					models = append(models, m)
				}
			}
			if len(models) > 0 {
				p.Models = models
			}
		}
	}
	if p := c.Evaluation.Providers["textpool"]; p != nil && env.TextPoolURL != "" {
		p.URL = env.TextPoolURL
	}
	if env.ContentPath != "" {
		c.ContentDir = env.ContentPath
	}
	if env.RegenIntervalSeconds > 0 {
		c.Scheduler.IntervalSeconds = env.RegenIntervalSeconds
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
