package models

import "time"

// TimestampLayout is the wire format for post timestamps. It is UTC-naive on
// purpose: the consuming presentation layer sorts and displays these strings
// as-is, so the layout must stay byte-stable across runs.
const TimestampLayout = "2006-01-02T15:04:05"

// Author describes the actor attached to a post. All fields except Name are
// commonly absent; empty strings are serialized rather than omitted because
// the output contract promises every key.
type Author struct {
	Name       string `json:"name"`
	ProfileURL string `json:"profile_url"`
	Title      string `json:"title"`
	AvatarURL  string `json:"avatar_url"`
}

// PostRecord is one normalized feed post. ID is the canonical identity used
// for deduplication: the activity identifier when the permalink could be
// extracted, otherwise a content fingerprint (prefixed "fp:").
//
// Media holds URL references in presentation order; the pipeline never owns
// media bytes. Timestamp is set exactly once at extraction and never revised.
type PostRecord struct {
	ID        string    `json:"-"`
	Original  string    `json:"original"`
	Text      string    `json:"text"`
	Media     []string  `json:"media"`
	Timestamp time.Time `json:"-"`
	Author    Author    `json:"author"`

	// FirstSeen is the fold order used to break timestamp ties when the
	// aggregate is sealed. Not serialized.
	FirstSeen int `json:"-"`
}

// HasContent reports whether the record carries anything worth keeping.
// Posts with neither text nor media are structural noise and are skipped.
func (p *PostRecord) HasContent() bool {
	return p.Text != "" || len(p.Media) > 0
}

// ChannelReport is the per-channel outcome surfaced to the user at the end
// of a run: either a post count or a short failure reason.
type ChannelReport struct {
	URL       string
	FeedURL   string
	PostCount int
	Err       error
}

// Succeeded reports whether the channel contributed to the aggregate.
// An empty channel is a success with zero posts, not a failure.
func (r ChannelReport) Succeeded() bool {
	return r.Err == nil
}
