// Package browser is the capability boundary over the page-automation
// driver. The pipeline never touches a rendering engine directly; it only
// consumes the PageDriver primitives, so the live chromedp implementation
// and the test fakes are interchangeable.
package browser

import "time"

// PageDriver is the automation capability the pipeline requires: navigate,
// wait, scroll, script evaluation, element queries, and the login-form
// primitives. One driver equals one live browser session, acquired once per
// run and released via Close on every exit path.
type PageDriver interface {
	// Navigate loads url and waits for the document body to be ready.
	Navigate(url string) error

	// WaitVisible blocks until selector is visible or timeout elapses.
	WaitVisible(selector string, timeout time.Duration) error

	// Exists reports whether selector currently matches any element.
	Exists(selector string) (bool, error)

	// CountElements returns the number of elements matching selector.
	CountElements(selector string) (int, error)

	// QueryOuterHTML returns the outerHTML of every element matching
	// selector, in document order.
	QueryOuterHTML(selector string) ([]string, error)

	// ScrollToBottom scrolls the viewport to the bottom of the document.
	ScrollToBottom() error

	// SendKeys clears the element matching selector and types value.
	SendKeys(selector, value string) error

	// Click clicks the first element matching selector.
	Click(selector string) error

	// CurrentURL returns the address of the active page.
	CurrentURL() (string, error)

	// Close tears down the browser session. Safe to call more than once.
	Close() error
}
