package linkedin

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// The feed shows post age either as a compact relative string ("2w", "3d",
// "1h", "5mo", sometimes "2 weeks ago") or, in datetime attributes, as an
// absolute value. Both normalize to a UTC-naive instant so ordering works
// across channels.

var relativePattern = regexp.MustCompile(`^(\d+)\s*([a-z]+)`)

// ParseRelativeTime resolves a relative age string against now. The bool
// result reports whether the string was recognized; on failure now itself
// is returned, documented as an approximation rather than a hard failure.
func ParseRelativeTime(text string, now time.Time) (time.Time, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return now, false
	}

	// "now", "just now"
	if strings.Contains(text, "now") {
		return now, true
	}

	m := relativePattern.FindStringSubmatch(text)
	if m == nil {
		return now, false
	}

	amount, err := strconv.Atoi(m[1])
	if err != nil {
		return now, false
	}
	unit := m[2]

	var delta time.Duration
	switch {
	case strings.HasPrefix(unit, "mo"):
		delta = time.Duration(amount) * 30 * 24 * time.Hour // approximate
	case strings.HasPrefix(unit, "s"):
		delta = time.Duration(amount) * time.Second
	case strings.HasPrefix(unit, "m"):
		delta = time.Duration(amount) * time.Minute
	case strings.HasPrefix(unit, "h"):
		delta = time.Duration(amount) * time.Hour
	case strings.HasPrefix(unit, "d"):
		delta = time.Duration(amount) * 24 * time.Hour
	case strings.HasPrefix(unit, "w"):
		delta = time.Duration(amount) * 7 * 24 * time.Hour
	case strings.HasPrefix(unit, "y"):
		delta = time.Duration(amount) * 365 * 24 * time.Hour // approximate
	default:
		return now, false
	}

	return now.Add(-delta), true
}

// NormalizeTimestamp converts whatever age representation a post exposes
// into an absolute UTC-naive time. Relative strings resolve against now;
// absolute-looking strings of unknown layout go through dateparse; anything
// unparseable falls back to now.
func NormalizeTimestamp(text string, now time.Time) time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return now
	}

	// Age strings are often suffixed with visibility bullets ("2w • Edited").
	if i := strings.IndexRune(text, '•'); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	if lower := strings.ToLower(text); strings.HasSuffix(lower, " ago") {
		text = strings.TrimSpace(text[:len(text)-len(" ago")])
	}

	if t, ok := ParseRelativeTime(text, now); ok {
		return t
	}

	if t, err := dateparse.ParseAny(text); err == nil {
		return t.UTC()
	}

	return now
}
