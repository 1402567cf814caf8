package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chTempDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
}

func TestLoadDefaults(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 3.0, cfg.Notion.RateLimit)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.HaikuModel)
	assert.Equal(t, 5, cfg.Crawl.MaxPages)
	assert.Equal(t, 1, cfg.Crawl.MaxDepth)
	assert.Equal(t, 30, cfg.Crawl.TimeoutSecs)
	assert.Equal(t, 24, cfg.Crawl.CacheTTLHours)
	assert.InDelta(t, 1.00, cfg.Enrich.MaxBudgetUSD, 0.001)
	assert.Equal(t, 5, cfg.Enrich.Concurrency)
	assert.Equal(t, 30, cfg.Enrich.StalenessDays)
	assert.Equal(t, "vet-enrich.db", cfg.Store.Path)
}

func TestLoadFromYAML(t *testing.T) {
	chTempDir(t)

	yaml := `
log:
  level: debug
  format: console
crawl:
  max_pages: 8
enrich:
  max_budget_usd: 2.50
  staleness_days: 14
notion:
  token: secret-token
  practice_db: db123
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 8, cfg.Crawl.MaxPages)
	assert.InDelta(t, 2.50, cfg.Enrich.MaxBudgetUSD, 0.001)
	assert.Equal(t, 14, cfg.Enrich.StalenessDays)
	assert.Equal(t, "secret-token", cfg.Notion.Token)

	// Unset keys keep their defaults.
	assert.Equal(t, 1, cfg.Crawl.MaxDepth)
	assert.Equal(t, 5, cfg.Enrich.Concurrency)
}

func TestLoadFromEnv(t *testing.T) {
	chTempDir(t)
	t.Setenv("VETENRICH_NOTION_TOKEN", "env-token")
	t.Setenv("VETENRICH_ENRICH_CONCURRENCY", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Notion.Token)
	assert.Equal(t, 2, cfg.Enrich.Concurrency)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.Validate())

	cfg.Notion.Token = "tok"
	assert.Error(t, cfg.Validate())

	cfg.Notion.PracticeDB = "db"
	assert.Error(t, cfg.Validate())

	cfg.Anthropic.Key = "key"
	assert.Error(t, cfg.Validate())

	cfg.Enrich.MaxBudgetUSD = 1.00
	assert.NoError(t, cfg.Validate())
}

func TestCrawlConfigDurations(t *testing.T) {
	c := CrawlConfig{TimeoutSecs: 30, CacheTTLHours: 24}
	assert.Equal(t, "30s", c.PageTimeout().String())
	assert.Equal(t, "24h0m0s", c.CacheTTL().String())
}
