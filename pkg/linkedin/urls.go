package linkedin

import (
	"strings"

	"liscraper/pkg/config"
)

// NormalizeChannelURL rewrites a profile or company root URL into its
// canonical activity-feed form. The rewrite rules are configuration data,
// not control flow: the upstream URL scheme has provider-specific special
// cases and is not contractually stable.
//
// Rules are evaluated in order; the first rule whose Contains fragment
// matches the URL wins. An empty Rewrite passes the URL through unchanged.
// When no rule matches, defaultRewrite applies (it sees the whole URL as
// {base}).
func NormalizeChannelURL(raw string, rules []config.ChannelRule, defaultRewrite string) string {
	url := strings.TrimRight(strings.TrimSpace(raw), "/")
	if url == "" {
		return ""
	}

	for _, rule := range rules {
		idx := strings.Index(url, rule.Contains)
		if rule.Contains == "" || idx < 0 {
			continue
		}
		if rule.Rewrite == "" {
			return url
		}
		return expandRule(rule.Rewrite, url, idx, len(rule.Contains))
	}

	if defaultRewrite == "" {
		defaultRewrite = "{base}/recent-activity/all/"
	}
	return strings.ReplaceAll(defaultRewrite, "{base}", url)
}

// expandRule substitutes {base} (everything before the matched fragment)
// and {id} (the path segment right after it) into the rewrite template.
func expandRule(template, url string, matchIdx, matchLen int) string {
	base := url[:matchIdx]
	rest := strings.TrimPrefix(url[matchIdx+matchLen:], "/")
	id := rest
	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		id = rest[:slash]
	}

	out := strings.ReplaceAll(template, "{base}", base)
	out = strings.ReplaceAll(out, "{id}", id)
	return out
}

// CanonicalPermalink strips volatile query parameters and fragments from a
// display URL so repeated observations of the same post compare equal.
func CanonicalPermalink(href string) string {
	if i := strings.IndexByte(href, '?'); i >= 0 {
		href = href[:i]
	}
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	return strings.TrimRight(href, "/")
}

// ActivityID pulls the stable activity identifier out of a URN or permalink
// ("urn:li:activity:7123..." or ".../feed/update/urn:li:activity:7123...").
// Returns "" when none is embedded.
func ActivityID(s string) string {
	const marker = "activity:"
	idx := strings.LastIndex(s, marker)
	if idx < 0 {
		return ""
	}
	id := s[idx+len(marker):]
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			id = id[:i]
			break
		}
	}
	return id
}

// PermalinkForActivity builds the canonical share URL for an activity id.
func PermalinkForActivity(id string) string {
	return "https://www.linkedin.com/feed/update/urn:li:activity:" + id
}
