package feed

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"time"

	"liscraper/pkg/models"
)

// fingerprintTextPrefix bounds how much post text participates in the
// content fingerprint. Long posts routinely get re-rendered with trailing
// "...see more" differences; the prefix is stable across renders.
const fingerprintTextPrefix = 64

// Aggregate is the run-wide deduplicated post collection. All channels fold
// into one Aggregate so cross-posted items collapse to a single record; it
// is sealed (sorted and capped) exactly once at the end of the run.
type Aggregate struct {
	records map[string]*models.PostRecord
	seq     int
}

// NewAggregate creates an empty aggregate.
func NewAggregate() *Aggregate {
	return &Aggregate{records: make(map[string]*models.PostRecord)}
}

// Len returns the number of distinct posts folded so far.
func (a *Aggregate) Len() int {
	return len(a.records)
}

// Fold merges a candidate record into the aggregate and returns the
// canonical id it was filed under.
//
// Identity: two candidates are the same post iff their canonical ids match;
// candidates without a permalink-derived id fall back to a content
// fingerprint. Repeat observations are common because scrolling re-renders
// previously seen elements; on a repeat, the richer-extraction policy fills
// fields the stored record is missing. Timestamps are never overwritten
// once set, so enrichment converges to the same record regardless of
// observation order.
func (a *Aggregate) Fold(candidate *models.PostRecord) string {
	if candidate.ID == "" {
		candidate.ID = Fingerprint(candidate)
	}

	existing, ok := a.records[candidate.ID]
	if !ok {
		candidate.FirstSeen = a.seq
		a.seq++
		a.records[candidate.ID] = candidate
		return candidate.ID
	}

	enrich(existing, candidate)
	return existing.ID
}

// enrich fills empty fields of stored from candidate. Timestamp is
// deliberately untouched.
func enrich(stored, candidate *models.PostRecord) {
	if stored.Text == "" && candidate.Text != "" {
		stored.Text = candidate.Text
	}
	if len(stored.Media) == 0 && len(candidate.Media) > 0 {
		stored.Media = candidate.Media
	}
	if stored.Original == "" && candidate.Original != "" {
		stored.Original = candidate.Original
	}
	if stored.Author.Name == "" && candidate.Author.Name != "" {
		stored.Author.Name = candidate.Author.Name
	}
	if stored.Author.ProfileURL == "" && candidate.Author.ProfileURL != "" {
		stored.Author.ProfileURL = candidate.Author.ProfileURL
	}
	if stored.Author.Title == "" && candidate.Author.Title != "" {
		stored.Author.Title = candidate.Author.Title
	}
	if stored.Author.AvatarURL == "" && candidate.Author.AvatarURL != "" {
		stored.Author.AvatarURL = candidate.Author.AvatarURL
	}
}

// Seal sorts the aggregate by timestamp descending (ties broken by fold
// order) and truncates it to cap records. cap <= 0 means no cap.
func (a *Aggregate) Seal(cap int) []*models.PostRecord {
	sealed := make([]*models.PostRecord, 0, len(a.records))
	for _, rec := range a.records {
		sealed = append(sealed, rec)
	}

	sort.Slice(sealed, func(i, j int) bool {
		if !sealed[i].Timestamp.Equal(sealed[j].Timestamp) {
			return sealed[i].Timestamp.After(sealed[j].Timestamp)
		}
		return sealed[i].FirstSeen < sealed[j].FirstSeen
	})

	if cap > 0 && len(sealed) > cap {
		sealed = sealed[:cap]
	}

	return sealed
}

// Fingerprint derives a stable identity for posts whose permalink could not
// be extracted: sha1 over the author name, the first 64 bytes of text, and
// the timestamp truncated to the minute. Minute truncation absorbs the
// skew between two extractions of the same relative age string.
func Fingerprint(p *models.PostRecord) string {
	text := p.Text
	if len(text) > fingerprintTextPrefix {
		text = text[:fingerprintTextPrefix]
	}

	h := sha1.New()
	h.Write([]byte(p.Author.Name))
	h.Write([]byte{0})
	h.Write([]byte(text))
	h.Write([]byte{0})
	h.Write([]byte(p.Timestamp.Truncate(time.Minute).Format(time.RFC3339)))

	return "fp:" + hex.EncodeToString(h.Sum(nil))
}
