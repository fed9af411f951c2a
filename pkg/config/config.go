package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the feed scraper
type Config struct {
	// Session / login behavior
	Session SessionConfig `yaml:"session" json:"session"`

	// Scroll-driven collection settings
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`

	// Channel URL handling
	Channels ChannelConfig `yaml:"channels" json:"channels"`

	// Rate limiting of driver actions
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry behavior for channel navigation
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SessionConfig holds login and challenge-handling configuration
type SessionConfig struct {
	LoginURL              string        `yaml:"login_url" json:"login_url"`
	Email                 string        `yaml:"email" json:"email"`
	Password              string        `yaml:"-" json:"-"`
	Account               string        `yaml:"account" json:"account"`
	ChallengePollInterval time.Duration `yaml:"challenge_poll_interval" json:"challenge_poll_interval"`
	ChallengeTimeout      time.Duration `yaml:"challenge_timeout" json:"challenge_timeout"`
	LoginTimeout          time.Duration `yaml:"login_timeout" json:"login_timeout"`
}

// ScrapeConfig holds scroll pagination configuration
type ScrapeConfig struct {
	MaxPostsPerChannel int           `yaml:"max_posts_per_channel" json:"max_posts_per_channel"`
	MaxScrolls         int           `yaml:"max_scrolls" json:"max_scrolls"`
	PlateauThreshold   int           `yaml:"plateau_threshold" json:"plateau_threshold"`
	ScrollSettle       time.Duration `yaml:"scroll_settle" json:"scroll_settle"`
	NavigationTimeout  time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	Headless           bool          `yaml:"headless" json:"headless"`
}

// ChannelRule rewrites a channel URL into its activity-feed form. Rules are
// evaluated in order; the first rule whose Contains fragment matches wins.
// Rewrite templates accept {base} (the URL up to the matched fragment) and
// {id} (the path segment following the matched fragment). An empty Rewrite
// passes the URL through unchanged.
type ChannelRule struct {
	Contains string `yaml:"contains" json:"contains"`
	Rewrite  string `yaml:"rewrite" json:"rewrite"`
}

// ChannelConfig holds channel URL normalization rules. The upstream URL
// scheme is not contractually stable, so the rewrite rules are data.
type ChannelConfig struct {
	Rules   []ChannelRule `yaml:"rules" json:"rules"`
	Default string        `yaml:"default" json:"default"`
}

// RateLimitConfig paces driver actions (navigation, scrolls) per minute
type RateLimitConfig struct {
	ActionsPerMinute int `yaml:"actions_per_minute" json:"actions_per_minute"`
	BurstSize        int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds channel navigation retry configuration
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier  float64       `yaml:"multiplier" json:"multiplier"`
}

// OutputConfig holds aggregate output configuration
type OutputConfig struct {
	Path       string `yaml:"path" json:"path"`
	WriteEmpty bool   `yaml:"write_empty" json:"write_empty"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Session: SessionConfig{
			LoginURL:              "https://www.linkedin.com/login",
			ChallengePollInterval: 3 * time.Second,
			ChallengeTimeout:      5 * time.Minute,
			LoginTimeout:          15 * time.Second,
		},
		Scrape: ScrapeConfig{
			MaxPostsPerChannel: 50,
			MaxScrolls:         10,
			PlateauThreshold:   3,
			ScrollSettle:       2 * time.Second,
			NavigationTimeout:  15 * time.Second,
			Headless:           false,
		},
		Channels: ChannelConfig{
			Rules: []ChannelRule{
				{Contains: "/recent-activity", Rewrite: "{base}/recent-activity/all/"},
				{Contains: "/company/", Rewrite: "https://www.linkedin.com/company/{id}/posts/"},
			},
			Default: "{base}/recent-activity/all/",
		},
		RateLimit: RateLimitConfig{
			ActionsPerMinute: 30,
			BurstSize:        10,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
			MaxDelay:    30 * time.Second,
			Multiplier:  2.0,
		},
		Output: OutputConfig{
			Path:       "posts.json",
			WriteEmpty: false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if email := os.Getenv("LISCRAPER_EMAIL"); email != "" {
		c.Session.Email = email
	}
	if password := os.Getenv("LISCRAPER_PASSWORD"); password != "" {
		c.Session.Password = password
	}
	if loginURL := os.Getenv("LISCRAPER_LOGIN_URL"); loginURL != "" {
		c.Session.LoginURL = loginURL
	}
	if maxPosts := os.Getenv("LISCRAPER_MAX_POSTS"); maxPosts != "" {
		if val, err := strconv.Atoi(maxPosts); err == nil && val > 0 {
			c.Scrape.MaxPostsPerChannel = val
		}
	}
	if scrolls := os.Getenv("LISCRAPER_MAX_SCROLLS"); scrolls != "" {
		if val, err := strconv.Atoi(scrolls); err == nil && val > 0 {
			c.Scrape.MaxScrolls = val
		}
	}
	if headless := os.Getenv("LISCRAPER_HEADLESS"); headless != "" {
		c.Scrape.Headless = strings.ToLower(headless) == "true"
	}
	if apm := os.Getenv("LISCRAPER_ACTIONS_PER_MINUTE"); apm != "" {
		if val, err := strconv.Atoi(apm); err == nil && val > 0 {
			c.RateLimit.ActionsPerMinute = val
		}
	}
	if outputPath := os.Getenv("LISCRAPER_OUTPUT"); outputPath != "" {
		c.Output.Path = outputPath
	}
	if logLevel := os.Getenv("LISCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".liscraper.yaml",
		".liscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "liscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".liscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Session.LoginURL == "" {
		errs = append(errs, errors.New("login URL is required"))
	}
	if c.Session.ChallengePollInterval <= 0 {
		errs = append(errs, errors.New("challenge poll interval must be positive"))
	}
	if c.Session.ChallengeTimeout <= 0 {
		errs = append(errs, errors.New("challenge timeout must be positive"))
	}

	if c.Scrape.MaxPostsPerChannel <= 0 {
		errs = append(errs, errors.New("max posts per channel must be positive"))
	}
	if c.Scrape.MaxScrolls <= 0 {
		errs = append(errs, errors.New("max scrolls must be positive"))
	}
	if c.Scrape.PlateauThreshold <= 0 {
		errs = append(errs, errors.New("plateau threshold must be positive"))
	}
	if c.Scrape.ScrollSettle <= 0 {
		errs = append(errs, errors.New("scroll settle delay must be positive"))
	}

	if c.RateLimit.ActionsPerMinute <= 0 {
		errs = append(errs, errors.New("actions per minute must be positive"))
	}

	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max retry attempts cannot be negative"))
	}

	if c.Output.Path == "" {
		errs = append(errs, errors.New("output path is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if email, ok := flags["email"].(string); ok && email != "" {
		c.Session.Email = email
	}
	if password, ok := flags["password"].(string); ok && password != "" {
		c.Session.Password = password
	}
	if account, ok := flags["account"].(string); ok && account != "" {
		c.Session.Account = account
	}
	if output, ok := flags["output"].(string); ok && output != "" {
		c.Output.Path = output
	}
	if maxPosts, ok := flags["max-posts"].(int); ok && maxPosts > 0 {
		c.Scrape.MaxPostsPerChannel = maxPosts
	}
	if scrolls, ok := flags["scrolls"].(int); ok && scrolls > 0 {
		c.Scrape.MaxScrolls = scrolls
	}
	if headless, ok := flags["headless"].(bool); ok {
		c.Scrape.Headless = headless
	}
	if apm, ok := flags["actions-per-minute"].(int); ok && apm > 0 {
		c.RateLimit.ActionsPerMinute = apm
	}
	if writeEmpty, ok := flags["write-empty"].(bool); ok {
		c.Output.WriteEmpty = writeEmpty
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".liscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
