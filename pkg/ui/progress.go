package ui

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
)

// ChannelProgress shows a spinner for the channel currently being scraped.
// One channel runs at a time, so one spinner suffices.
type ChannelProgress struct {
	spin *spinner.Spinner
}

// NewChannelProgress creates a progress display. In quiet mode every method
// is a no-op.
func NewChannelProgress() *ChannelProgress {
	if quietMode {
		return &ChannelProgress{}
	}
	return &ChannelProgress{
		spin: spinner.New(spinner.CharSets[9], 100*time.Millisecond),
	}
}

// StartChannel begins the spinner for one channel.
func (p *ChannelProgress) StartChannel(index, total int, url string) {
	if p.spin == nil {
		return
	}
	p.spin.Suffix = fmt.Sprintf(" channel %d/%d: %s", index, total, url)
	p.spin.Start()
}

// UpdateScroll refreshes the spinner with scroll progress.
func (p *ChannelProgress) UpdateScroll(iteration, maxScrolls, distinct int) {
	if p.spin == nil {
		return
	}
	p.spin.Suffix = fmt.Sprintf(" scroll %d/%d, %d posts", iteration, maxScrolls, distinct)
}

// FinishChannel stops the spinner and prints the channel outcome.
func (p *ChannelProgress) FinishChannel(url string, posts int, err error) {
	if p.spin != nil {
		p.spin.Stop()
	}
	if err != nil {
		PrintError(fmt.Sprintf("✗ %s", url), err)
		return
	}
	PrintSuccess(fmt.Sprintf("✓ %s: %d posts", url, posts))
}
