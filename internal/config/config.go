package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"

	configPathEnv  = "RSS_SUMMARY_CONFIG"
	llmProviderEnv = "LLM_PROVIDER"
	llmAPIKeyEnv   = "LLM_API_KEY"
	llmModelEnv    = "LLM_MODEL"
	webhookURLEnv  = "WEBHOOK_URL"
	databaseDSNEnv = "DATABASE_DSN"
	feedSourceEnv  = "FEED_SOURCE_URL"
	apiKeyEnv      = "API_ACCESS_KEY"
	apiPortEnv     = "API_PORT"
)

// Summarizer providers accepted by the llm client.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Schedule modes.
const (
	ModeCron     = "cron"
	ModeRealtime = "realtime"
)

// Watermark store drivers.
const (
	DriverFile     = "file"
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Feeds      []FeedConfig     `yaml:"feeds"`
	LLM        LLMConfig        `yaml:"llm"`
	Notify     NotifyConfig     `yaml:"notifications"`
	Processing ProcessingConfig `yaml:"processing"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Storage    StorageConfig    `yaml:"storage"`
	FeedSource FeedSourceConfig `yaml:"feedSource"`
	API        APIConfig        `yaml:"api"`
}

// LoggingConfig controls log verbosity and output shape.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// FeedConfig describes a single subscribed feed.
type FeedConfig struct {
	ID            string     `yaml:"id"`
	URL           string     `yaml:"url"`
	Name          string     `yaml:"name"`
	Enabled       bool       `yaml:"enabled"`
	Prompt        string     `yaml:"prompt"`
	LastProcessed *time.Time `yaml:"lastProcessed"`
}

// LLMConfig is the single provider-parameterized summarizer configuration.
type LLMConfig struct {
	Provider  string `yaml:"provider"`
	APIKey    string `yaml:"apiKey"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"maxTokens"`
	Endpoint  string `yaml:"endpoint"` // optional API base override
	Prompt    string `yaml:"prompt"`   // default summarization prompt
}

// NotifyConfig wires the group-chat webhook destination.
type NotifyConfig struct {
	WebhookURL    string `yaml:"webhookUrl"`
	AllowedDomain string `yaml:"allowedDomain"`
}

// ProcessingConfig bounds the per-feed work of one run.
type ProcessingConfig struct {
	ArticlesPerFeed int  `yaml:"articlesPerFeed"`
	OnlyNew         bool `yaml:"onlyNew"`
}

// ScheduleConfig defines when batch runs execute.
type ScheduleConfig struct {
	Mode            string         `yaml:"mode"` // cron or realtime
	CronExpression  string         `yaml:"cronExpression"`
	IntervalMinutes int            `yaml:"intervalMinutes"`
	Timezone        string         `yaml:"timezone"`
	location        *time.Location `yaml:"-"`
}

// Location resolves the schedule timezone string to a time.Location.
func (s ScheduleConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// StorageConfig selects the watermark store backend.
type StorageConfig struct {
	Driver string `yaml:"driver"` // file, bolt or postgres
	Path   string `yaml:"path"`   // file and bolt location
	DSN    string `yaml:"dsn"`    // postgres connection string
}

// FeedSourceConfig points at an externally managed feed list (optional).
type FeedSourceConfig struct {
	URL string `yaml:"url"`
}

// APIConfig enables the HTTP surface when a port is set.
type APIConfig struct {
	Port      string `yaml:"port"`
	AccessKey string `yaml:"accessKey"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides. Absent keys keep their defaults; Load never fails, fatal
// misconfiguration is reported by Validate.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			cfg = defaultConfig()
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// LoadFile behaves like Load but reads the given path instead of the
// environment-provided one.
func LoadFile(path string) (Config, error) {
	cfg := defaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg, nil
}

// Validate reports the fatal misconfigurations that must stop the batch
// before any processing begins.
func (c Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("llm: unknown provider %q", c.LLM.Provider)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm: apiKey is required")
	}
	if c.Notify.WebhookURL == "" {
		return fmt.Errorf("notifications: webhookUrl is required")
	}
	if c.Processing.ArticlesPerFeed <= 0 {
		return fmt.Errorf("processing: articlesPerFeed must be positive")
	}

	switch c.Schedule.Mode {
	case ModeCron:
		if c.Schedule.CronExpression == "" {
			return fmt.Errorf("schedule: cronExpression is required in cron mode")
		}
	case ModeRealtime:
		if c.Schedule.IntervalMinutes <= 0 {
			return fmt.Errorf("schedule: intervalMinutes must be positive in realtime mode")
		}
	default:
		return fmt.Errorf("schedule: unknown mode %q", c.Schedule.Mode)
	}

	switch c.Storage.Driver {
	case DriverFile, DriverBolt:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage: path is required for the %s driver", c.Storage.Driver)
		}
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage: dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("storage: unknown driver %q", c.Storage.Driver)
	}

	seen := make(map[string]struct{}, len(c.Feeds))
	for i, feed := range c.Feeds {
		if feed.ID == "" {
			return fmt.Errorf("feeds[%d]: id is required", i)
		}
		if feed.URL == "" {
			return fmt.Errorf("feeds[%d] (%s): url is required", i, feed.ID)
		}
		if _, dup := seen[feed.ID]; dup {
			return fmt.Errorf("feeds[%d]: duplicate id %q", i, feed.ID)
		}
		seen[feed.ID] = struct{}{}
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(llmProviderEnv); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv(webhookURLEnv); v != "" {
		c.Notify.WebhookURL = v
	}
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv(feedSourceEnv); v != "" {
		c.FeedSource.URL = v
	}
	if v := os.Getenv(apiKeyEnv); v != "" {
		c.API.AccessKey = v
	}
	if v := os.Getenv(apiPortEnv); v != "" {
		if _, err := strconv.Atoi(v); err != nil {
			log.Printf("config: ignoring non-numeric %s=%q", apiPortEnv, v)
		} else {
			c.API.Port = v
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Schedule.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Schedule.location = loc
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		LLM: LLMConfig{
			Provider:  ProviderAnthropic,
			Model:     "claude-3-haiku-20240307",
			MaxTokens: 1024,
			Prompt:    "Summarize the following article in three concise sentences.",
		},
		Notify: NotifyConfig{
			AllowedDomain: "chat.googleapis.com",
		},
		Processing: ProcessingConfig{ArticlesPerFeed: 5, OnlyNew: true},
		Schedule: ScheduleConfig{
			Mode:            ModeCron,
			CronExpression:  "0 8 * * *",
			IntervalMinutes: 15,
			Timezone:        defaultTimezone,
			location:        tz,
		},
		Storage: StorageConfig{Driver: DriverFile, Path: "data/watermarks.json"},
	}
}
