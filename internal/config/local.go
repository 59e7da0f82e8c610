package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/marketcraft/marketcraft/internal/domain"
)

// LocalConfig holds configuration for local daemon mode
type LocalConfig struct {
	Daemon      DaemonConfig      `yaml:"daemon"`
	Evaluation  EvaluationConfig  `yaml:"evaluation"`
	Judging     JudgingConfig     `yaml:"judging"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	ContentDir  string            `yaml:"content_dir,omitempty"`
}

// DaemonConfig holds daemon server settings
type DaemonConfig struct {
	Port     int    `yaml:"port"`
	Bind     string `yaml:"bind"`
	LogLevel string `yaml:"log_level"`
}

// EvaluationConfig holds the remote evaluation provider settings. Chain
// lists provider names in fallback order.
type EvaluationConfig struct {
	Chain     []string                   `yaml:"chain"`
	Providers map[string]*ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds settings for a single evaluation provider
type ProviderConfig struct {
	Enabled bool     `yaml:"enabled"`
	URL     string   `yaml:"url,omitempty"`
	Model   string   `yaml:"model,omitempty"`
	Models  []string `yaml:"models,omitempty"` // ordered preference, gemini only
	APIKey  string   `yaml:"-"`                // Loaded from secrets.yaml
}

// JudgingConfig exposes the product-tuning knobs behind the judging
// profile. Zero values fall back to the shipped defaults.
type JudgingConfig struct {
	DayRamp       float64 `yaml:"day_ramp,omitempty"`
	LevelRamp     float64 `yaml:"level_ramp,omitempty"`
	ProgressRamp  float64 `yaml:"progress_ramp,omitempty"`
	MinStrictness float64 `yaml:"min_strictness,omitempty"`
	MaxStrictness float64 `yaml:"max_strictness,omitempty"`
	MaxScoreBoost float64 `yaml:"max_score_boost,omitempty"`
}

// LeaderboardConfig holds the optional shared-leaderboard backends. The
// game is fully playable with this section disabled.
type LeaderboardConfig struct {
	Enabled     bool   `yaml:"enabled"`
	DatabaseURL string `yaml:"database_url,omitempty"`
	RabbitMQURL string `yaml:"rabbitmq_url,omitempty"`
}

// SchedulerConfig holds background regeneration settings
type SchedulerConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
}

// SecretsConfig holds API keys loaded from secrets.yaml
type SecretsConfig struct {
	Providers map[string]struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"providers"`
}

// Tuning resolves the judging overrides against the shipped defaults.
func (j JudgingConfig) Tuning() domain.JudgingTuning {
	t := domain.DefaultJudgingTuning()
	if j.DayRamp > 0 {
		t.DayRamp = j.DayRamp
	}
	if j.LevelRamp > 0 {
		t.LevelRamp = j.LevelRamp
	}
	if j.ProgressRamp > 0 {
		t.ProgressRamp = j.ProgressRamp
	}
	if j.MinStrictness > 0 {
		t.MinStrictness = j.MinStrictness
	}
	if j.MaxStrictness > 0 {
		t.MaxStrictness = j.MaxStrictness
	}
	if j.MaxScoreBoost > 0 {
		t.MaxScoreBoost = j.MaxScoreBoost
	}
	return t
}

// MarketcraftDir returns the path to ~/.marketcraft
func MarketcraftDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".marketcraft"), nil
}

// EnsureMarketcraftDir creates ~/.marketcraft and subdirectories if they don't exist
func EnsureMarketcraftDir() (string, error) {
	dir, err := MarketcraftDir()
	if err != nil {
		return "", err
	}

	subdirs := []string{
		"",
		"logs",
		"saves",
		"content",
		"attempts",
	}

	for _, subdir := range subdirs {
		path := filepath.Join(dir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w", path, err)
		}
	}

	return dir, nil
}

// DefaultLocalConfig returns sensible defaults for local mode
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		Daemon: DaemonConfig{
			Port:     7431,
			Bind:     "127.0.0.1",
			LogLevel: "info",
		},
		Evaluation: EvaluationConfig{
			Chain: []string{"textpool", "gemini"},
			Providers: map[string]*ProviderConfig{
				"textpool": {
					Enabled: true,
					URL:     "https://text.pollinations.ai",
					Model:   "openai",
				},
				"gemini": {
					Enabled: true,
					Models:  []string{"gemini-2.0-flash", "gemini-1.5-flash"},
				},
			},
		},
		Leaderboard: LeaderboardConfig{
			Enabled: false,
		},
		Scheduler: SchedulerConfig{
			IntervalSeconds: 60,
		},
	}
}

// LoadLocalConfig loads configuration from ~/.marketcraft/config.yaml
func LoadLocalConfig() (*LocalConfig, error) {
	dir, err := MarketcraftDir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(dir, "config.yaml")

	// If config doesn't exist, return defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultLocalConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultLocalConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Load secrets (API keys)
	if err := loadSecrets(dir, cfg); err != nil {
		return nil, fmt.Errorf("load secrets: %w", err)
	}

	return cfg, nil
}

// loadSecrets loads API keys from secrets.yaml
func loadSecrets(dir string, cfg *LocalConfig) error {
	secretsPath := filepath.Join(dir, "secrets.yaml")

	// If secrets file doesn't exist, skip
	if _, err := os.Stat(secretsPath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(secretsPath)
	if err != nil {
		return fmt.Errorf("read secrets: %w", err)
	}

	var secrets SecretsConfig
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return fmt.Errorf("parse secrets: %w", err)
	}

	// Apply secrets to config
	for name, secret := range secrets.Providers {
		if provider, ok := cfg.Evaluation.Providers[name]; ok {
			provider.APIKey = secret.APIKey
		}
	}

	return nil
}

// SaveLocalConfig saves configuration to ~/.marketcraft/config.yaml
func SaveLocalConfig(cfg *LocalConfig) error {
	dir, err := EnsureMarketcraftDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(dir, "config.yaml")

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// SaveSecrets saves API keys to ~/.marketcraft/secrets.yaml
func SaveSecrets(secrets map[string]string) error {
	dir, err := EnsureMarketcraftDir()
	if err != nil {
		return err
	}

	secretsPath := filepath.Join(dir, "secrets.yaml")

	secretsCfg := SecretsConfig{
		Providers: make(map[string]struct {
			APIKey string `yaml:"api_key"`
		}),
	}

	for name, key := range secrets {
		secretsCfg.Providers[name] = struct {
			APIKey string `yaml:"api_key"`
		}{APIKey: key}
	}

	data, err := yaml.Marshal(secretsCfg)
	if err != nil {
		return fmt.Errorf("marshal secrets: %w", err)
	}

	// Write with restricted permissions (owner read/write only)
	if err := os.WriteFile(secretsPath, data, 0600); err != nil {
		return fmt.Errorf("write secrets: %w", err)
	}

	return nil
}
