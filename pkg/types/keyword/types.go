// Package keyword defines the canonical keyword data model shared by the
// ingestion collaborators, the gap analysis engine, and the reporting layer.
// Provider-specific payload shapes never cross package boundaries; everything
// downstream of normalization speaks in these types.
package keyword

import (
	"sort"
	"strings"
)

// Intent classifies the searcher's likely purpose behind a keyword.
type Intent string

const (
	IntentInformational Intent = "informational"
	IntentTransactional Intent = "transactional"
	IntentCommercial    Intent = "commercial"
	IntentNavigational  Intent = "navigational"
	IntentUnknown       Intent = "unknown"
)

// ParseIntent maps free-form provider intent labels onto the canonical enum.
// Unrecognised or empty values map to IntentUnknown.
func ParseIntent(s string) Intent {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "informational":
		return IntentInformational
	case "transactional":
		return IntentTransactional
	case "commercial":
		return IntentCommercial
	case "navigational":
		return IntentNavigational
	default:
		return IntentUnknown
	}
}

// Commercial reports whether the intent is revenue-adjacent (transactional or
// commercial investigation).
func (i Intent) Commercial() bool {
	return i == IntentTransactional || i == IntentCommercial
}

// NormalizeText canonicalizes keyword text: lower-cased, trimmed, with all
// internal whitespace runs collapsed to a single space.  Two keywords are the
// same keyword iff their normalized texts are equal.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Record is one observation of a (domain, keyword) pair as delivered by the
// keyword data provider, after normalization.  Records are immutable once
// ingested; stages that need variations build new values.
type Record struct {
	// Keyword is the normalized keyword text.
	Keyword string `json:"keyword"`

	// SearchVolume is the monthly search volume estimate, never negative.
	SearchVolume int `json:"search_volume"`

	// Difficulty is the ranking difficulty estimate in [0, 100].
	Difficulty float64 `json:"difficulty"`

	// CPC is the estimated cost-per-click in USD, never negative.
	CPC float64 `json:"cpc"`

	// Intent is the classified search intent.
	Intent Intent `json:"intent"`

	// SERPFeatures lists SERP feature identifiers observed for the keyword
	// (e.g. "featured_snippet", "people_also_ask"), sorted and deduplicated.
	SERPFeatures []string `json:"serp_features,omitempty"`

	// RankingDomain is the domain this observation belongs to.
	RankingDomain string `json:"ranking_domain"`

	// RankPosition is the organic rank of RankingDomain for Keyword.
	// Zero means the position is absent (the domain was observed for the
	// keyword without a usable rank).
	RankPosition int `json:"rank_position,omitempty"`
}

// Ranked reports whether the record carries a usable rank position.
func (r Record) Ranked() bool {
	return r.RankPosition > 0
}

// BetterRankedThan reports whether r should win a per-domain duplicate
// resolution against other: a present rank beats an absent one, and a lower
// (better) position beats a higher one.
func (r Record) BetterRankedThan(other Record) bool {
	if !other.Ranked() {
		return r.Ranked()
	}
	if !r.Ranked() {
		return false
	}
	return r.RankPosition < other.RankPosition
}

// NormalizeFeatures returns a sorted, deduplicated, lower-cased copy of the
// given SERP feature list, dropping empty entries.
func NormalizeFeatures(features []string) []string {
	if len(features) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(features))
	out := make([]string, 0, len(features))
	for _, f := range features {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

// DomainSet holds all normalized keyword records for one domain, keyed by
// normalized keyword text.  Keyword text is unique within a set; Add resolves
// duplicates by keeping the better-ranked record.
type DomainSet struct {
	Domain  string            `json:"domain"`
	Records map[string]Record `json:"records"`
}

// NewDomainSet constructs an empty DomainSet for the given domain.
func NewDomainSet(domain string) *DomainSet {
	return &DomainSet{
		Domain:  domain,
		Records: make(map[string]Record),
	}
}

// Add inserts rec into the set, resolving keyword-text collisions in favour
// of the better-ranked record.  It reports whether rec was stored.
func (s *DomainSet) Add(rec Record) bool {
	existing, ok := s.Records[rec.Keyword]
	if ok && !rec.BetterRankedThan(existing) {
		return false
	}
	s.Records[rec.Keyword] = rec
	return true
}

// Get returns the record for the normalized keyword text, if present.
func (s *DomainSet) Get(normalized string) (Record, bool) {
	if s == nil {
		return Record{}, false
	}
	rec, ok := s.Records[normalized]
	return rec, ok
}

// Has reports whether the set contains the normalized keyword text.
func (s *DomainSet) Has(normalized string) bool {
	_, ok := s.Get(normalized)
	return ok
}

// Len returns the number of distinct keywords in the set.
func (s *DomainSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Keywords returns the set's normalized keyword texts in ascending order.
// The stable order is what makes downstream iteration deterministic.
func (s *DomainSet) Keywords() []string {
	if s == nil || len(s.Records) == 0 {
		return nil
	}
	out := make([]string, 0, len(s.Records))
	for k := range s.Records {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
