package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"liscraper/pkg/config"
	"liscraper/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage LinkedIn Scraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'liscraper.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources:
  - Command line flags
  - Environment variables
  - Configuration file
  - Default values

Passwords are never included.`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Required fields
  - Value types and ranges
  - Path accessibility`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = "liscraper.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# LinkedIn Scraper Configuration File
#
# This file contains all available configuration options.
# You can also use environment variables prefixed with LISCRAPER_
# For example: LISCRAPER_EMAIL, LISCRAPER_PASSWORD, LISCRAPER_HEADLESS
#
# Never put your password in this file. Use 'liscraper auth login' or
# the LISCRAPER_PASSWORD environment variable instead.

# Login and challenge handling
session:
  # Login page URL
  login_url: "https://www.linkedin.com/login"

  # LinkedIn email (optional, can come from stored credentials)
  email: ""

  # Stored account to use (see 'liscraper auth list')
  account: ""

  # How often to re-check while you complete a CAPTCHA or two-step code
  challenge_poll_interval: 3s

  # How long to wait for manual verification before giving up
  challenge_timeout: 5m

  # How long to wait for the login form to resolve
  login_timeout: 15s

# Scroll-driven collection
scrape:
  # Maximum posts to collect per channel
  max_posts_per_channel: 50

  # Maximum scroll iterations per channel
  max_scrolls: 10

  # Stop after this many scrolls with no new content
  plateau_threshold: 3

  # How long to wait after each scroll for content to load
  scroll_settle: 2s

  # How long to wait for a feed page to render
  navigation_timeout: 15s

  # Run the browser without a window (manual verification is impossible)
  headless: false

# Channel URL rewriting. The first rule whose 'contains' fragment matches
# wins. Templates accept {base} and {id}. An empty rewrite passes the URL
# through unchanged.
channels:
  rules:
    - contains: "/recent-activity"
      rewrite: "{base}/recent-activity/all/"
    - contains: "/company/"
      rewrite: "https://www.linkedin.com/company/{id}/posts/"
  default: "{base}/recent-activity/all/"

# Rate limiting of browser actions
rate_limit:
  # Browser actions (navigation, scrolls) per minute
  actions_per_minute: 30

  # Burst size
  burst_size: 10

# Retry configuration for channel navigation
retry:
  max_attempts: 3
  base_delay: 2s
  max_delay: 30s
  multiplier: 2.0

# Output configuration
output:
  # Output file for collected posts
  path: "posts.json"

  # Write the file even when no posts were collected
  write_empty: false

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional)
  # Leave empty to log to stderr only
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Run 'liscraper auth login' to store your LinkedIn credentials")
	fmt.Println("2. Run 'liscraper config validate' to check the configuration")
	fmt.Println("3. Start scraping with 'liscraper scrape -c <channel_url>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Passwords carry a yaml:"-" tag, so marshaling is already safe.
	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (LISCRAPER_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (not specified)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if configFile == "" {
		possiblePaths := []string{
			"liscraper.yaml",
			"liscraper.yml",
			".liscraper.yaml",
			".liscraper.yml",
			filepath.Join(os.Getenv("HOME"), ".liscraper.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "liscraper", "config.yaml"),
		}

		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}

		if configFile == "" {
			ui.PrintError("No configuration file found", "Specify a file with --config flag")
			os.Exit(1)
		}
	}

	ui.PrintInfo("Validating configuration", configFile)

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	warnings := []string{}
	errors := []string{}

	if cfg.Session.Email == "" && cfg.Session.Account == "" {
		warnings = append(warnings, "no email or account configured, credentials must come from the store or environment")
	}

	if dir := filepath.Dir(cfg.Output.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create output directory: %v", err))
		}
	}

	if cfg.Logging.File != "" {
		dir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("cannot create log directory: %v", err))
		}
	}

	if cfg.RateLimit.ActionsPerMinute < 1 || cfg.RateLimit.ActionsPerMinute > 120 {
		errors = append(errors, "actions_per_minute must be between 1 and 120")
	}
	if cfg.Retry.MaxAttempts < 0 || cfg.Retry.MaxAttempts > 10 {
		errors = append(errors, "max_attempts must be between 0 and 10")
	}
	if cfg.Scrape.MaxScrolls > 100 {
		warnings = append(warnings, "max_scrolls above 100 will make runs very slow")
	}

	if len(errors) > 0 {
		ui.PrintError("Configuration has errors:", "")
		for _, err := range errors {
			fmt.Printf("  - %s\n", err)
		}
		os.Exit(1)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:", "")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Output file: %s\n", cfg.Output.Path)
	fmt.Printf("  Max posts per channel: %d\n", cfg.Scrape.MaxPostsPerChannel)
	fmt.Printf("  Max scrolls: %d\n", cfg.Scrape.MaxScrolls)
	fmt.Printf("  Rate limit: %d actions/minute\n", cfg.RateLimit.ActionsPerMinute)
	fmt.Printf("  Max retries: %d\n", cfg.Retry.MaxAttempts)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}
