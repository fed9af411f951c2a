package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"liscraper/pkg/auth"
	"liscraper/pkg/browser"
	"liscraper/pkg/config"
	"liscraper/pkg/logger"
	"liscraper/pkg/models"
	"liscraper/pkg/scraper"
	"liscraper/pkg/session"
	"liscraper/pkg/storage"
	"liscraper/pkg/ui"
)

var (
	// Scrape command flags
	channelList      string
	outputPath       string
	maxPosts         int
	maxScrolls       int
	headless         bool
	loginEmail       string
	loginPassword    string
	accountName      string
	actionsPerMinute int
	writeEmpty       bool
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Collect posts from LinkedIn profiles or company pages",
	Long: `Collect posts from one or more LinkedIn channels.

A channel is a profile or company page URL. Each channel is rewritten to
its activity feed, scrolled until no new posts load, and its posts are
merged into a single deduplicated output file.

This command requires valid LinkedIn credentials configured through:
  - Stored credentials (use 'liscraper auth login' to store)
  - Environment variables (LISCRAPER_EMAIL and LISCRAPER_PASSWORD)
  - The --email and --password flags

If LinkedIn asks for manual verification (CAPTCHA, two-step code), run
without --headless, complete it in the browser window, and the scraper
resumes automatically.`,
	Example: `  # Scrape a single profile
  liscraper scrape -c https://www.linkedin.com/in/someone/

  # Multiple channels, custom output and post cap
  liscraper scrape -c https://www.linkedin.com/in/a/,https://www.linkedin.com/company/b/ -o posts.json --max-posts 100

  # Use a specific stored account
  liscraper scrape -c https://www.linkedin.com/in/someone/ --account me@example.com

  # Headless run with credentials from the environment
  LISCRAPER_EMAIL=... LISCRAPER_PASSWORD=... liscraper scrape -c ... --headless`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runScrape(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVarP(&channelList, "channels", "c", "", "comma-separated list of channel URLs (required)")
	scrapeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file for collected posts (default: posts.json)")
	scrapeCmd.Flags().IntVar(&maxPosts, "max-posts", 0, "maximum posts to collect per channel")
	scrapeCmd.Flags().IntVar(&maxScrolls, "scrolls", 0, "maximum scroll iterations per channel")
	scrapeCmd.Flags().BoolVar(&headless, "headless", false, "run the browser headless (manual verification is impossible)")
	scrapeCmd.Flags().StringVar(&loginEmail, "email", "", "LinkedIn login email")
	scrapeCmd.Flags().StringVar(&loginPassword, "password", "", "LinkedIn login password (prefer stored credentials)")
	scrapeCmd.Flags().StringVarP(&accountName, "account", "a", "", "use specific stored account")
	scrapeCmd.Flags().IntVar(&actionsPerMinute, "actions-per-minute", 0, "browser actions allowed per minute")
	scrapeCmd.Flags().BoolVar(&writeEmpty, "write-empty", false, "write the output file even when no posts were collected")

	_ = scrapeCmd.MarkFlagRequired("channels")
}

func runScrape(cmd *cobra.Command, args []string) {
	channels := splitChannels(channelList)
	if len(channels) == 0 {
		ui.PrintError("No channels given", "Pass at least one URL with --channels")
		os.Exit(1)
	}

	// Build flags map from command line
	flags := make(map[string]interface{})
	if outputPath != "" {
		flags["output"] = outputPath
	}
	if maxPosts > 0 {
		flags["max-posts"] = maxPosts
	}
	if maxScrolls > 0 {
		flags["scrolls"] = maxScrolls
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}
	if loginEmail != "" {
		flags["email"] = loginEmail
	}
	if loginPassword != "" {
		flags["password"] = loginPassword
	}
	if accountName != "" {
		flags["account"] = accountName
	}
	if actionsPerMinute > 0 {
		flags["actions-per-minute"] = actionsPerMinute
	}
	if cmd.Flags().Changed("write-empty") {
		flags["write-empty"] = writeEmpty
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	// Load configuration
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("LinkedIn Scraper starting")

	creds, err := resolveCredentials(cfg)
	if err != nil {
		log.WithError(err).Error("No credentials available")
		ui.PrintError("No LinkedIn credentials found", "")
		fmt.Println("\nTo store credentials securely, run:")
		fmt.Println("  liscraper auth login")
		fmt.Println("\nYou can also set environment variables:")
		fmt.Println("  export LISCRAPER_EMAIL=your_email")
		fmt.Println("  export LISCRAPER_PASSWORD=your_password")
		os.Exit(1)
	}
	ui.PrintInfo("Using account", creds.Email)
	ui.PrintInfo("Channels", fmt.Sprintf("%d", len(channels)))

	driver, err := browser.NewChrome(cfg.Scrape.Headless, log)
	if err != nil {
		log.WithError(err).Error("Browser acquisition failed")
		ui.PrintError("Failed to start browser", err.Error())
		os.Exit(1)
	}
	defer driver.Close()

	pipeline := scraper.New(cfg, driver, log)

	if err := pipeline.Authenticate(creds); err != nil {
		log.WithError(err).Error("Login failed")
		ui.PrintError("LOGIN FAILED", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Logged in")

	agg, reports, runErr := pipeline.Run(channels)

	printRunSummary(reports)

	if runErr != nil {
		log.WithError(runErr).Error("Run failed")
		ui.PrintError("SCRAPE FAILED", runErr.Error())
		os.Exit(1)
	}

	records := agg.Seal(cfg.Scrape.MaxPostsPerChannel)
	if len(records) == 0 && !cfg.Output.WriteEmpty {
		log.Warn("No posts collected, skipping output write")
		ui.PrintWarning("No posts collected, output not written")
		return
	}

	writer, err := storage.NewWriter(cfg.Output.Path)
	if err != nil {
		ui.PrintError("Failed to prepare output file", err.Error())
		os.Exit(1)
	}
	if err := writer.Write(records); err != nil {
		log.WithError(err).Error("Output write failed")
		ui.PrintError("Failed to write output", err.Error())
		os.Exit(1)
	}

	mediaCount, textLen := 0, 0
	for _, r := range records {
		mediaCount += len(r.Media)
		textLen += len(r.Text)
	}
	log.WithFields(map[string]interface{}{
		"posts":      len(records),
		"media":      mediaCount,
		"text_bytes": textLen,
		"output":     cfg.Output.Path,
	}).Info("Scrape completed")
	ui.PrintSuccess(fmt.Sprintf("Wrote %d posts to %s", len(records), cfg.Output.Path))
}

// resolveCredentials picks login credentials in precedence order: explicit
// flags/config, a named stored account, then the default stored account.
func resolveCredentials(cfg *config.Config) (session.Credentials, error) {
	if cfg.Session.Email != "" && cfg.Session.Password != "" {
		return session.Credentials{Email: cfg.Session.Email, Password: cfg.Session.Password}, nil
	}

	manager, err := auth.NewManager()
	if err != nil {
		return session.Credentials{}, err
	}

	if cfg.Session.Account != "" {
		account, err := manager.Retrieve(cfg.Session.Account)
		if err != nil {
			return session.Credentials{}, err
		}
		return session.Credentials{Email: account.Email, Password: account.Password}, nil
	}

	account, err := manager.RetrieveDefault()
	if err == nil {
		return session.Credentials{Email: account.Email, Password: account.Password}, nil
	}

	// Nothing stored. Fall back to prompting when a human is attached.
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return session.Credentials{}, err
	}
	email, promptErr := auth.PromptEmail()
	if promptErr != nil {
		return session.Credentials{}, promptErr
	}
	password, promptErr := auth.PromptPassword()
	if promptErr != nil {
		return session.Credentials{}, promptErr
	}
	return session.Credentials{Email: email, Password: password}, nil
}

// printRunSummary prints per-channel outcomes and totals.
func printRunSummary(reports []models.ChannelReport) {
	if ui.IsQuietMode() {
		return
	}

	ui.PrintHighlight("Run Summary")
	total := 0
	failed := 0
	for _, r := range reports {
		if r.Succeeded() {
			fmt.Printf("  ok    %-60s %d posts\n", r.URL, r.PostCount)
			total += r.PostCount
		} else {
			fmt.Printf("  FAIL  %-60s %v\n", r.URL, r.Err)
			failed++
		}
	}
	fmt.Printf("\n  %d channels, %d failed, %d posts collected\n\n", len(reports), failed, total)
}

// splitChannels parses a comma-separated channel list, dropping empties.
func splitChannels(list string) []string {
	var channels []string
	for _, part := range strings.Split(list, ",") {
		if c := strings.TrimSpace(part); c != "" {
			channels = append(channels, c)
		}
	}
	return channels
}
