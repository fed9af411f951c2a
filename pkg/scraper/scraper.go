// Package scraper composes the extraction pipeline: one authenticated
// browser session, channels processed sequentially, posts folded into a
// single run-wide aggregate.
//
// There is deliberately no parallelism across channels: concurrent
// sessions against the same provider sharply raise anti-automation
// detection risk, and provider rate limits make parallel scraping slower,
// not faster.
package scraper

import (
	"fmt"
	"time"

	"liscraper/pkg/browser"
	"liscraper/pkg/config"
	"liscraper/pkg/errors"
	"liscraper/pkg/feed"
	"liscraper/pkg/linkedin"
	"liscraper/pkg/logger"
	"liscraper/pkg/models"
	"liscraper/pkg/ratelimit"
	"liscraper/pkg/retry"
	"liscraper/pkg/session"
	"liscraper/pkg/ui"
)

// Pipeline orchestrates session acquisition, scrolling, extraction and
// aggregation for a run. It owns the aggregate; nothing else mutates it.
type Pipeline struct {
	driver    browser.PageDriver
	session   *session.Manager
	extractor *linkedin.Extractor
	limiter   ratelimit.Limiter
	cfg       *config.Config
	log       logger.Logger
	progress  *ui.ChannelProgress

	sleep func(time.Duration)
}

// New creates a Pipeline around an acquired driver.
func New(cfg *config.Config, driver browser.PageDriver, log logger.Logger) *Pipeline {
	return &Pipeline{
		driver:    driver,
		session:   session.NewManager(driver, cfg.Session, Markers(), log),
		extractor: linkedin.NewExtractor(log),
		limiter:   ratelimit.NewTokenBucket(cfg.RateLimit.ActionsPerMinute, time.Minute),
		cfg:       cfg,
		log:       log,
		progress:  ui.NewChannelProgress(),
		sleep:     time.Sleep,
	}
}

// Markers wires the provider's DOM selectors into the session state
// machine. Kept here so the session package stays free of markup
// knowledge.
func Markers() session.Markers {
	return session.Markers{
		EmailField:            linkedin.LoginEmailSelector,
		PasswordField:         linkedin.LoginPasswordSelector,
		SubmitButton:          linkedin.LoginSubmitSelector,
		Success:               linkedin.LoginSuccessSelectors,
		Challenge:             linkedin.ChallengeSelectors,
		ChallengeURLFragments: linkedin.ChallengeURLFragments,
		Rejected:              linkedin.LoginRejectedSelectors,
	}
}

// Authenticate logs the session in once per run. Fatal on failure; nothing
// downstream works unauthenticated.
func (p *Pipeline) Authenticate(creds session.Credentials) error {
	state, err := p.session.Authenticate(creds)
	if err != nil {
		return err
	}
	if state != session.Authenticated {
		return errors.New(errors.ErrorTypeAuth, fmt.Sprintf("login ended in state %s", state))
	}
	return nil
}

// Run processes the channels in order and returns the shared aggregate
// plus one report per channel. A single channel's hard failure is recorded
// and isolated; the run itself fails only when every channel failed.
//
// The aggregate is returned unsealed: the caller seals (sorts, caps) it
// exactly once after the cross-channel merge.
func (p *Pipeline) Run(channels []string) (*feed.Aggregate, []models.ChannelReport, error) {
	if len(channels) == 0 {
		return nil, nil, errors.New(errors.ErrorTypeRun, "no channels to scrape")
	}

	agg := feed.NewAggregate()
	reports := make([]models.ChannelReport, 0, len(channels))
	succeeded := 0

	for i, raw := range channels {
		p.log.InfoWithFields("processing channel", map[string]interface{}{
			"channel": raw,
			"index":   i + 1,
			"total":   len(channels),
		})
		p.progress.StartChannel(i+1, len(channels), raw)

		report := p.scrapeChannel(agg, raw)
		p.progress.FinishChannel(raw, report.PostCount, report.Err)

		if report.Succeeded() {
			succeeded++
		} else {
			p.log.WithError(report.Err).WithField("channel", raw).Error("channel failed")
		}
		reports = append(reports, report)
	}

	if succeeded == 0 {
		return agg, reports, errors.New(errors.ErrorTypeRun, "every channel failed")
	}
	return agg, reports, nil
}

// scrapeChannel navigates to one channel's activity feed and folds every
// extracted post into the aggregate. All errors are captured in the report
// rather than propagated.
func (p *Pipeline) scrapeChannel(agg *feed.Aggregate, rawURL string) models.ChannelReport {
	report := models.ChannelReport{URL: rawURL}

	feedURL := linkedin.NormalizeChannelURL(rawURL, p.cfg.Channels.Rules, p.cfg.Channels.Default)
	report.FeedURL = feedURL
	p.log.DebugWithFields("channel normalized", map[string]interface{}{
		"channel":  rawURL,
		"feed_url": feedURL,
	})

	if err := p.openFeed(feedURL); err != nil {
		report.Err = errors.Wrap(errors.ErrorTypeChannel, "channel feed unreachable", err)
		return report
	}

	if empty, _ := p.driver.Exists(linkedin.EmptyStateSelector); empty {
		p.log.WarnWithFields("channel has no visible posts or is private", map[string]interface{}{
			"channel": rawURL,
		})
		return report
	}

	seen := make(map[string]bool)
	harvest := func() (int, error) {
		htmls, err := p.driver.QueryOuterHTML(linkedin.PostSelector)
		if err != nil {
			return len(seen), err
		}
		for _, html := range htmls {
			rec, err := p.extractor.Extract(html)
			if err != nil {
				continue // not a post
			}
			seen[agg.Fold(rec)] = true
		}
		return len(seen), nil
	}

	sc := &scrollController{
		driver:   p.driver,
		limiter:  p.limiter,
		log:      p.log,
		settle:   p.cfg.Scrape.ScrollSettle,
		plateau:  p.cfg.Scrape.PlateauThreshold,
		sleep:    p.sleep,
		onUpdate: func(iteration, distinct int) { p.progress.UpdateScroll(iteration, p.cfg.Scrape.MaxScrolls, distinct) },
	}

	progress, err := sc.run(linkedin.PostSelector, p.cfg.Scrape.MaxScrolls, p.cfg.Scrape.MaxPostsPerChannel, harvest)
	report.PostCount = len(seen)
	if err != nil {
		if len(seen) == 0 {
			report.Err = errors.Wrap(errors.ErrorTypeChannel, "channel extraction failed", err)
			return report
		}
		// Partial harvest: keep what was extracted, surface the rest as a
		// degraded channel, not a failed one.
		p.log.WithError(err).WithField("channel", rawURL).Warn("scrolling aborted early, keeping partial harvest")
	}

	p.log.InfoWithFields("channel complete", map[string]interface{}{
		"channel":    rawURL,
		"posts":      report.PostCount,
		"iterations": progress.Iterations,
	})
	return report
}

// openFeed navigates to the feed URL and waits for its initial render,
// retrying transient failures with backoff.
func (p *Pipeline) openFeed(feedURL string) error {
	retryCfg := &retry.Config{
		MaxAttempts: p.cfg.Retry.MaxAttempts,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    p.cfg.Retry.BaseDelay,
			MaxDelay:     p.cfg.Retry.MaxDelay,
			Multiplier:   p.cfg.Retry.Multiplier,
			JitterFactor: 0.1,
		},
		RetryIf: retry.DefaultRetryIf,
		Logger:  p.log,
	}

	return retry.Do(func() error {
		p.limiter.Wait()
		if err := p.driver.Navigate(feedURL); err != nil {
			return err
		}
		return p.driver.WaitVisible(linkedin.FeedReadySelector, p.cfg.Scrape.NavigationTimeout)
	}, retryCfg)
}
