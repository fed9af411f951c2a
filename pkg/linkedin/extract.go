package linkedin

import (
	"errors"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"liscraper/pkg/logger"
	"liscraper/pkg/models"
)

// ErrSkip marks an element that is structurally not a post (promoted
// placeholder, empty shell). Skips are silently excluded from the
// aggregate; they are not errors and do not count toward the post cap.
var ErrSkip = errors.New("element is not a post")

// Extractor converts one rendered post element (its outerHTML) into a
// normalized PostRecord. Missing sub-elements degrade to empty fields,
// never to a failed run.
type Extractor struct {
	log logger.Logger

	// now supplies the wall clock relative timestamps resolve against.
	now func() time.Time
}

// NewExtractor creates an Extractor using the real wall clock.
func NewExtractor(log logger.Logger) *Extractor {
	return &Extractor{log: log, now: time.Now}
}

// NewExtractorAt creates an Extractor with a fixed reference clock.
func NewExtractorAt(log logger.Logger, now func() time.Time) *Extractor {
	return &Extractor{log: log, now: now}
}

// Extract parses a post element fragment. It returns ErrSkip for elements
// that are not posts; any other outcome is a record, possibly with empty
// optional fields.
func (e *Extractor) Extract(rawHTML string) (*models.PostRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, ErrSkip
	}

	if isPromoted(doc) {
		return nil, ErrSkip
	}

	rec := &models.PostRecord{}

	rec.ID, rec.Original = e.extractIdentity(doc)
	rec.Timestamp = e.extractTimestamp(doc)
	rec.Author = e.extractAuthor(doc)
	rec.Text = firstText(doc, textSelectors)
	rec.Media = extractMedia(doc)

	// A shell with no text and no media is rendering noise, not a post.
	if !rec.HasContent() {
		return nil, ErrSkip
	}

	if rec.ID == "" {
		e.log.DebugWithFields("post has no stable permalink, fingerprint identity will apply", map[string]interface{}{
			"author": rec.Author.Name,
		})
	}

	return rec, nil
}

// extractIdentity resolves the canonical id and permalink. The data-urn
// activity id is preferred over display URLs, whose query parameters are
// volatile.
func (e *Extractor) extractIdentity(doc *goquery.Document) (id, permalink string) {
	urn := attrOf(doc, "[data-urn*='activity']", "data-urn")
	if urn != "" {
		if aid := ActivityID(urn); aid != "" {
			return aid, PermalinkForActivity(aid)
		}
	}

	for _, sel := range permalinkSelectors {
		href := attrOf(doc, sel, "href")
		if href == "" {
			continue
		}
		href = CanonicalPermalink(href)
		if aid := ActivityID(href); aid != "" {
			return aid, PermalinkForActivity(aid)
		}
		return "", href
	}

	return "", ""
}

func (e *Extractor) extractTimestamp(doc *goquery.Document) time.Time {
	now := e.now()

	for _, sel := range timestampSelectors {
		var found time.Time
		var ok bool
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			// A machine-readable datetime attribute wins outright.
			if dt, exists := s.Attr("datetime"); exists && dt != "" {
				found, ok = NormalizeTimestamp(dt, now), true
				return false
			}
			if title, exists := s.Attr("title"); exists && looksLikeAge(title) {
				found, ok = NormalizeTimestamp(title, now), true
				return false
			}
			if text := strings.TrimSpace(s.Text()); looksLikeAge(text) {
				found, ok = NormalizeTimestamp(text, now), true
				return false
			}
			return true
		})
		if ok {
			return found
		}
	}

	// Approximation, documented: a post with no recognizable age carries
	// the extraction wall-clock time.
	return now
}

func (e *Extractor) extractAuthor(doc *goquery.Document) models.Author {
	author := models.Author{
		Name:  firstText(doc, authorNameSelectors),
		Title: firstText(doc, authorTitleSelectors),
	}

	for _, sel := range authorLinkSelectors {
		if href := attrOf(doc, sel, "href"); href != "" {
			author.ProfileURL = CanonicalPermalink(href)
			break
		}
	}

	for _, sel := range avatarSelectors {
		if src := attrOf(doc, sel, "src"); src != "" {
			author.AvatarURL = src
			break
		}
	}

	return author
}

// extractMedia collects content image and video URLs in presentation order,
// filtering out avatars, presence badges and reaction icons.
func extractMedia(doc *goquery.Document) []string {
	var media []string
	seen := make(map[string]bool)

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if src == "" || !strings.Contains(src, mediaHost) {
			return
		}
		haystack := strings.ToLower(s.AttrOr("class", "") + " " + s.AttrOr("alt", ""))
		for _, term := range mediaSkipTerms {
			if strings.Contains(haystack, term) {
				return
			}
		}
		if !seen[src] {
			seen[src] = true
			media = append(media, src)
		}
	})

	doc.Find("video").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if src != "" && !seen[src] {
			seen[src] = true
			media = append(media, src)
		}
	})

	return media
}

// isPromoted detects sponsored placeholders by their actor sub-description.
func isPromoted(doc *goquery.Document) bool {
	for _, sel := range []string{
		".update-components-actor__sub-description",
		".feed-shared-actor__sub-description",
	} {
		text := strings.ToLower(strings.TrimSpace(doc.Find(sel).First().Text()))
		for _, marker := range promotedMarkers {
			if strings.Contains(text, marker) {
				return true
			}
		}
	}
	return false
}

// looksLikeAge filters selector hits down to strings that plausibly carry
// an age ("3d", "2 weeks ago", an ISO date) rather than arbitrary labels.
func looksLikeAge(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return false
	}
	if strings.Contains(s, "ago") || strings.Contains(s, "now") {
		return true
	}
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			return true
		}
	}
	return false
}

// firstText returns the first non-empty trimmed text among the selectors.
func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		text := collapseSpace(doc.Find(sel).First().Text())
		if text != "" {
			return dedupeDoubled(text)
		}
	}
	return ""
}

// attrOf returns the named attribute of the first selector match.
func attrOf(doc *goquery.Document, selector, name string) string {
	return strings.TrimSpace(doc.Find(selector).First().AttrOr(name, ""))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// dedupeDoubled halves strings the markup renders twice (visible copy plus
// an aria-hidden copy), e.g. "Jane Doe Jane Doe" -> "Jane Doe".
func dedupeDoubled(s string) string {
	n := len(s)
	if n >= 2 && n%2 == 1 && s[n/2] == ' ' {
		if s[:n/2] == s[n/2+1:] {
			return s[:n/2]
		}
	}
	if n >= 2 && n%2 == 0 && s[:n/2] == s[n/2:] {
		return s[:n/2]
	}
	return s
}
