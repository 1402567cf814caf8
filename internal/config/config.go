// Package config loads application configuration from file and environment.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Crawl     CrawlConfig     `yaml:"crawl" mapstructure:"crawl"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// NotionConfig holds Notion API credentials and the practice database ID.
type NotionConfig struct {
	Token      string  `yaml:"token" mapstructure:"token"`
	PracticeDB string  `yaml:"practice_db" mapstructure:"practice_db"`
	RateLimit  float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	HaikuModel string `yaml:"haiku_model" mapstructure:"haiku_model"`
}

// CrawlConfig configures the crawl phase.
type CrawlConfig struct {
	MaxPages      int `yaml:"max_pages" mapstructure:"max_pages"`
	MaxDepth      int `yaml:"max_depth" mapstructure:"max_depth"`
	TimeoutSecs   int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CacheTTLHours int `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// PageTimeout returns the per-page fetch timeout.
func (c CrawlConfig) PageTimeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// CacheTTL returns the crawl cache lifetime.
func (c CrawlConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// EnrichConfig configures batch enrichment.
type EnrichConfig struct {
	MaxBudgetUSD  float64 `yaml:"max_budget_usd" mapstructure:"max_budget_usd"`
	Concurrency   int     `yaml:"concurrency" mapstructure:"concurrency"`
	StalenessDays int     `yaml:"staleness_days" mapstructure:"staleness_days"`
	Limit         int     `yaml:"limit" mapstructure:"limit"`
}

// StoreConfig configures the local crawl cache database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VETENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Credential keys get empty defaults so AutomaticEnv can
	// populate them through Unmarshal.
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.practice_db", "")
	v.SetDefault("notion.rate_limit", 3.0)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.haiku_model", "claude-haiku-4-5-20251001")
	v.SetDefault("crawl.max_pages", 5)
	v.SetDefault("crawl.max_depth", 1)
	v.SetDefault("crawl.timeout_secs", 30)
	v.SetDefault("crawl.cache_ttl_hours", 24)
	v.SetDefault("enrich.max_budget_usd", 1.00)
	v.SetDefault("enrich.concurrency", 5)
	v.SetDefault("enrich.staleness_days", 30)
	v.SetDefault("enrich.limit", 0)
	v.SetDefault("store.path", "vet-enrich.db")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that required credentials are present.
func (c *Config) Validate() error {
	if c.Notion.Token == "" {
		return eris.New("config: notion.token is required")
	}
	if c.Notion.PracticeDB == "" {
		return eris.New("config: notion.practice_db is required")
	}
	if c.Anthropic.Key == "" {
		return eris.New("config: anthropic.key is required")
	}
	if c.Enrich.MaxBudgetUSD <= 0 {
		return eris.New("config: enrich.max_budget_usd must be positive")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
