package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://www.linkedin.com/login", cfg.Session.LoginURL)
	assert.Equal(t, 5*time.Minute, cfg.Session.ChallengeTimeout)
	assert.Equal(t, 50, cfg.Scrape.MaxPostsPerChannel)
	assert.Equal(t, 10, cfg.Scrape.MaxScrolls)
	assert.Equal(t, 3, cfg.Scrape.PlateauThreshold)
	assert.False(t, cfg.Scrape.Headless)
	assert.Equal(t, 30, cfg.RateLimit.ActionsPerMinute)
	assert.Equal(t, "posts.json", cfg.Output.Path)
	assert.False(t, cfg.Output.WriteEmpty)
	assert.Equal(t, "info", cfg.Logging.Level)

	// Channel rewrite rules ship with profile and company handling.
	require.NotEmpty(t, cfg.Channels.Rules)
	assert.Equal(t, "/recent-activity", cfg.Channels.Rules[0].Contains)
	assert.NotEmpty(t, cfg.Channels.Default)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LISCRAPER_EMAIL", "env@example.com")
	t.Setenv("LISCRAPER_PASSWORD", "env-secret")
	t.Setenv("LISCRAPER_MAX_POSTS", "25")
	t.Setenv("LISCRAPER_HEADLESS", "true")
	t.Setenv("LISCRAPER_OUTPUT", "env-posts.json")
	t.Setenv("LISCRAPER_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "env@example.com", cfg.Session.Email)
	assert.Equal(t, "env-secret", cfg.Session.Password)
	assert.Equal(t, 25, cfg.Scrape.MaxPostsPerChannel)
	assert.True(t, cfg.Scrape.Headless)
	assert.Equal(t, "env-posts.json", cfg.Output.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("LISCRAPER_MAX_POSTS", "not-a-number")
	t.Setenv("LISCRAPER_MAX_SCROLLS", "-3")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, 50, cfg.Scrape.MaxPostsPerChannel)
	assert.Equal(t, 10, cfg.Scrape.MaxScrolls)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "liscraper.yaml")

	yaml := `
scrape:
  max_posts_per_channel: 15
  max_scrolls: 4
  scroll_settle: 500ms
channels:
  rules:
    - contains: "/admin/page-posts"
      rewrite: ""
  default: "{base}/recent-activity/all/"
output:
  path: "custom.json"
  write_empty: true
logging:
  level: "warn"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, 15, cfg.Scrape.MaxPostsPerChannel)
	assert.Equal(t, 4, cfg.Scrape.MaxScrolls)
	assert.Equal(t, 500*time.Millisecond, cfg.Scrape.ScrollSettle)
	assert.Equal(t, "custom.json", cfg.Output.Path)
	assert.True(t, cfg.Output.WriteEmpty)
	assert.Equal(t, "warn", cfg.Logging.Level)

	require.Len(t, cfg.Channels.Rules, 1)
	assert.Equal(t, "/admin/page-posts", cfg.Channels.Rules[0].Contains)
	assert.Empty(t, cfg.Channels.Rules[0].Rewrite)
}

func TestLoadFromFileMissingIsNotAnError(t *testing.T) {
	cfg := DefaultConfig()
	// Explicit nonexistent path fails; empty path just means "no file".
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"email":              "flag@example.com",
		"password":           "flag-secret",
		"output":             "flag.json",
		"max-posts":          7,
		"scrolls":            2,
		"headless":           true,
		"actions-per-minute": 12,
		"write-empty":        true,
		"log-level":          "debug",
	})

	assert.Equal(t, "flag@example.com", cfg.Session.Email)
	assert.Equal(t, "flag-secret", cfg.Session.Password)
	assert.Equal(t, "flag.json", cfg.Output.Path)
	assert.Equal(t, 7, cfg.Scrape.MaxPostsPerChannel)
	assert.Equal(t, 2, cfg.Scrape.MaxScrolls)
	assert.True(t, cfg.Scrape.Headless)
	assert.Equal(t, 12, cfg.RateLimit.ActionsPerMinute)
	assert.True(t, cfg.Output.WriteEmpty)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("LISCRAPER_OUTPUT", "env.json")
	t.Setenv("LISCRAPER_MAX_POSTS", "20")

	cfg, err := Load("", map[string]interface{}{
		"output": "flag.json",
	})
	require.NoError(t, err)

	assert.Equal(t, "flag.json", cfg.Output.Path, "flags beat environment")
	assert.Equal(t, 20, cfg.Scrape.MaxPostsPerChannel, "env still applies where no flag is set")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults are valid", func(c *Config) {}, true},
		{"missing login URL", func(c *Config) { c.Session.LoginURL = "" }, false},
		{"zero max posts", func(c *Config) { c.Scrape.MaxPostsPerChannel = 0 }, false},
		{"zero max scrolls", func(c *Config) { c.Scrape.MaxScrolls = 0 }, false},
		{"zero plateau threshold", func(c *Config) { c.Scrape.PlateauThreshold = 0 }, false},
		{"zero actions per minute", func(c *Config) { c.RateLimit.ActionsPerMinute = 0 }, false},
		{"negative retry attempts", func(c *Config) { c.Retry.MaxAttempts = -1 }, false},
		{"empty output path", func(c *Config) { c.Output.Path = "" }, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, false},
		{"warn level ok", func(c *Config) { c.Logging.Level = "WARN" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved", "config.yaml")

	cfg := DefaultConfig()
	cfg.Scrape.MaxPostsPerChannel = 99
	cfg.Session.Password = "secret"
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, 99, loaded.Scrape.MaxPostsPerChannel)

	// The password must never land on disk.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.Empty(t, loaded.Session.Password)
}
