package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"liscraper/pkg/errors"
	"liscraper/pkg/logger"
)

const defaultActionTimeout = 30 * time.Second

// ChromeDriver implements PageDriver on a chromedp-managed Chrome session.
type ChromeDriver struct {
	browserCtx    context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
	log           logger.Logger
	closed        bool
}

// NewChrome launches a Chrome session. The flags mirror what interactive
// feeds tolerate: sandboxing off for containers, automation fingerprint
// suppressed so the login page renders its normal flow.
func NewChrome(headless bool, log logger.Logger) (*ChromeDriver, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("start-maximized", true),
	)
	if headless {
		opts = append(opts, chromedp.Headless)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	d := &ChromeDriver{
		browserCtx:    browserCtx,
		allocCancel:   allocCancel,
		browserCancel: browserCancel,
		log:           log,
	}

	// Start the browser now so acquisition failures surface here, not on
	// the first navigation. Masking navigator.webdriver keeps the feed from
	// short-circuiting into its automation wall.
	startCtx, cancel := context.WithTimeout(browserCtx, defaultActionTimeout)
	defer cancel()
	err := chromedp.Run(startCtx,
		chromedp.Evaluate(`Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`, nil),
	)
	if err != nil {
		d.Close()
		return nil, errors.Wrap(errors.ErrorTypeRun, "failed to acquire browser session", err)
	}

	log.InfoWithFields("browser session acquired", map[string]interface{}{
		"headless": headless,
	})
	return d, nil
}

func (d *ChromeDriver) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(d.browserCtx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// Navigate loads url and waits for the body to be ready.
func (d *ChromeDriver) Navigate(url string) error {
	d.log.DebugWithFields("navigating", map[string]interface{}{"url": url})
	err := d.run(defaultActionTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeChannel, fmt.Sprintf("navigation to %s failed", url), err)
	}
	return nil
}

// WaitVisible blocks until selector is visible or timeout elapses.
func (d *ChromeDriver) WaitVisible(selector string, timeout time.Duration) error {
	err := d.run(timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
	if err != nil {
		return errors.Wrap(errors.ErrorTypeChannel, fmt.Sprintf("selector %q did not become visible", selector), err)
	}
	return nil
}

// Exists reports whether selector currently matches any element.
func (d *ChromeDriver) Exists(selector string) (bool, error) {
	var found bool
	script := fmt.Sprintf(`document.querySelector(%q) !== null`, selector)
	if err := d.run(defaultActionTimeout, chromedp.Evaluate(script, &found)); err != nil {
		return false, errors.Wrap(errors.ErrorTypeChannel, "element probe failed", err)
	}
	return found, nil
}

// CountElements returns the number of elements matching selector.
func (d *ChromeDriver) CountElements(selector string) (int, error) {
	var count int
	script := fmt.Sprintf(`document.querySelectorAll(%q).length`, selector)
	if err := d.run(defaultActionTimeout, chromedp.Evaluate(script, &count)); err != nil {
		return 0, errors.Wrap(errors.ErrorTypeChannel, "element count failed", err)
	}
	return count, nil
}

// QueryOuterHTML returns the outerHTML of every element matching selector
// in document order. The snapshots are detached from the live DOM, so
// later re-renders cannot invalidate them the way stale element handles do.
func (d *ChromeDriver) QueryOuterHTML(selector string) ([]string, error) {
	var htmls []string
	script := fmt.Sprintf(`Array.from(document.querySelectorAll(%q), el => el.outerHTML)`, selector)
	if err := d.run(defaultActionTimeout, chromedp.Evaluate(script, &htmls)); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeChannel, "element query failed", err)
	}
	return htmls, nil
}

// ScrollToBottom scrolls the viewport to the bottom of the document.
func (d *ChromeDriver) ScrollToBottom() error {
	err := d.run(defaultActionTimeout,
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
	)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeChannel, "scroll failed", err)
	}
	return nil
}

// SendKeys clears the element matching selector and types value into it.
func (d *ChromeDriver) SendKeys(selector, value string) error {
	err := d.run(defaultActionTimeout,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
	if err != nil {
		return errors.Wrap(errors.ErrorTypeChannel, fmt.Sprintf("typing into %q failed", selector), err)
	}
	return nil
}

// Click clicks the first element matching selector.
func (d *ChromeDriver) Click(selector string) error {
	err := d.run(defaultActionTimeout, chromedp.Click(selector, chromedp.ByQuery))
	if err != nil {
		return errors.Wrap(errors.ErrorTypeChannel, fmt.Sprintf("click on %q failed", selector), err)
	}
	return nil
}

// CurrentURL returns the address of the active page.
func (d *ChromeDriver) CurrentURL() (string, error) {
	var url string
	if err := d.run(defaultActionTimeout, chromedp.Location(&url)); err != nil {
		return "", errors.Wrap(errors.ErrorTypeChannel, "location read failed", err)
	}
	return url, nil
}

// Close tears down the tab and the browser process. Safe to call twice.
func (d *ChromeDriver) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.browserCancel()
	d.allocCancel()
	if d.log != nil {
		d.log.Info("browser session released")
	}
	return nil
}
