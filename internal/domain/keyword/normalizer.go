// Package keyword implements the normalization boundary between raw provider
// payloads and the canonical keyword model.  Provider adapters map their wire
// formats onto RawRecord; everything downstream consumes keyword.DomainSet
// values produced here.  Provider-specific branches never leak past this
// package.
package keyword

import (
	"github.com/rankscope/rankscope/pkg/errors"
	kw "github.com/rankscope/rankscope/pkg/types/keyword"
)

// RawRecord is one loosely-typed keyword observation as delivered by an
// ingestion adapter, before canonicalization.  Field semantics follow the
// canonical model but no invariant is guaranteed yet: text may be ragged,
// numerics may be negative, intent may be any provider label.
type RawRecord struct {
	Keyword      string
	SearchVolume int
	Difficulty   float64
	CPC          float64
	Intent       string
	SERPFeatures []string
	RankPosition int // 0 = absent
}

// Result carries the outcome of normalizing one domain's raw payload.
type Result struct {
	Set *kw.DomainSet

	// Dropped counts raw records rejected as malformed.
	Dropped int

	// RecordErrors holds one error per dropped record.  Per-record failures
	// are recoverable; they never abort the batch.
	RecordErrors []error
}

// NormalizeDomain canonicalizes a raw per-domain payload into a DomainSet.
//
// Rules: keyword text is lower-cased, trimmed, and whitespace-collapsed;
// duplicate keyword text within the domain resolves to the record with the
// better rank position (absent loses to any present position); missing intent
// defaults to unknown; negative volume/difficulty/cpc are floored at zero and
// difficulty is capped at 100.  A record whose keyword text is empty after
// trimming is dropped and reported, never fatal.
func NormalizeDomain(domain string, raw []RawRecord) Result {
	res := Result{Set: kw.NewDomainSet(domain)}

	for i, r := range raw {
		text := kw.NormalizeText(r.Keyword)
		if text == "" {
			res.Dropped++
			res.RecordErrors = append(res.RecordErrors,
				errors.Newf(errors.ErrCodeKeywordMalformed,
					"record %d for domain %s: keyword text empty after trimming", i, domain))
			continue
		}

		rec := kw.Record{
			Keyword:       text,
			SearchVolume:  clampNonNegInt(r.SearchVolume),
			Difficulty:    clampRange(r.Difficulty, 0, 100),
			CPC:           clampNonNeg(r.CPC),
			Intent:        kw.ParseIntent(r.Intent),
			SERPFeatures:  kw.NormalizeFeatures(r.SERPFeatures),
			RankingDomain: domain,
			RankPosition:  clampNonNegInt(r.RankPosition),
		}
		res.Set.Add(rec)
	}

	return res
}

func clampNonNegInt(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func clampNonNeg(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
