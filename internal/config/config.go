package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/civicmeter/paragon/pkg/reliability"
	"github.com/civicmeter/paragon/pkg/scoring"
)

// Config is the root configuration.
type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
	Scoring     scoring.Config    `yaml:"scoring"`
	Reliability ReliabilityConfig `yaml:"reliability"`
	Trend       TrendConfig       `yaml:"trend"`
	Alerts      AlertsConfig      `yaml:"alerts"`
	Filter      FilterConfig      `yaml:"filter"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScheduleConfig configures ingestion and scoring intervals.
type ScheduleConfig struct {
	IngestInterval string `yaml:"ingest_interval"`
	ScoreInterval  string `yaml:"score_interval"`
}

// ParseIngestInterval returns the ingest interval as time.Duration.
func (s ScheduleConfig) ParseIngestInterval() time.Duration {
	d, err := time.ParseDuration(s.IngestInterval)
	if err != nil {
		return 30 * time.Minute
	}
	return d
}

// ParseScoreInterval returns the scoring interval as time.Duration.
func (s ScheduleConfig) ParseScoreInterval() time.Duration {
	d, err := time.ParseDuration(s.ScoreInterval)
	if err != nil {
		return 6 * time.Hour
	}
	return d
}

// ReliabilityConfig holds the NER weighting and the static source
// registry.
type ReliabilityConfig struct {
	Weights reliability.Weights      `yaml:"weights"`
	Sources []reliability.SourceMeta `yaml:"sources"`
}

// TrendConfig configures the read-side trend window and alerting.
type TrendConfig struct {
	WindowSize     int `yaml:"window_size"`
	AlertThreshold int `yaml:"alert_threshold"`
}

// AlertsConfig configures alert destinations.
type AlertsConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// SlackConfig for Slack webhook alerts.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook alerts.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook alerts.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// FilterConfig configures evidence filtering during ingestion.
type FilterConfig struct {
	Names           []string `yaml:"names"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./paragon.db"},
		Schedule: ScheduleConfig{
			IngestInterval: "30m",
			ScoreInterval:  "6h",
		},
		Scoring: scoring.DefaultConfig(),
		Reliability: ReliabilityConfig{
			Weights: reliability.DefaultWeights,
			Sources: []reliability.SourceMeta{
				{
					Key: "national-times", Name: "National Times",
					BaseURL: "https://nationaltimes.example", TrustTier: 1, TrustScore: 82,
					ScrapeMethod: "rss", RefreshMinutes: 30, Scope: "domestic",
				},
				{
					Key: "regional-post", Name: "Regional Post",
					BaseURL: "https://regionalpost.example", TrustTier: 2, TrustScore: 64,
					ScrapeMethod: "rss", RefreshMinutes: 60, Scope: "regional",
				},
				{
					Key: "wire-digest", Name: "Wire Digest",
					BaseURL: "https://wiredigest.example", TrustTier: 2, TrustScore: 58,
					ScrapeMethod: "rss", RefreshMinutes: 60,
				},
			},
		},
		Trend: TrendConfig{
			WindowSize:     50,
			AlertThreshold: 10,
		},
		Alerts: AlertsConfig{},
	}
}

// Load reads configuration from a YAML file and applies env var
// overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PARAGON_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Slack.WebhookURL = v
		cfg.Alerts.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Discord.WebhookURL = v
		cfg.Alerts.Discord.Enabled = true
	}
	if v := os.Getenv("PARAGON_WEBHOOK_URL"); v != "" {
		cfg.Alerts.Webhook.URL = v
		cfg.Alerts.Webhook.Enabled = true
	}
}
