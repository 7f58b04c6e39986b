// Package analysis implements the keyword gap and opportunity scoring
// pipeline: gap computation, opportunity scoring, categorization, and
// roadmap construction.  Every stage is a pure function of its inputs;
// the Service type composes them into a single analysis run.
package analysis

import (
	"sort"

	kw "github.com/rankscope/rankscope/pkg/types/keyword"
)

// -----------------------------------------------------------------------
// Gap Computation Types
// -----------------------------------------------------------------------

// GapCandidate is one keyword the target is not capturing.  Built fresh on
// each run and discarded after scoring; never persisted on its own.
type GapCandidate struct {
	Keyword string `json:"keyword"`

	// TargetHasIt reports whether the target ranks for the keyword at all.
	// When true the candidate was admitted via the striking-distance rule.
	TargetHasIt bool `json:"target_has_it"`

	// TargetRank is the target's position, 0 when absent.
	TargetRank int `json:"target_rank,omitempty"`

	// CompetitorPositions maps each competitor domain that carries the
	// keyword to its rank position (0 = observed but unranked).
	CompetitorPositions map[string]int `json:"competitor_positions"`

	BestCompetitorDomain string `json:"best_competitor_domain"`
	BestCompetitorRank   int    `json:"best_competitor_rank"`

	// Representative carries the keyword metrics used for scoring, taken
	// from the best competitor's record.
	Representative kw.Record `json:"representative_record"`
}

// GapOptions tunes gap computation.
type GapOptions struct {
	// StrikingDistance is the number of positions the target must trail the
	// best competitor by before a keyword it already ranks for counts as a
	// gap.
	StrikingDistance int

	// MaxCandidates caps the number of candidates emitted, keeping the
	// highest-volume keywords.  Zero falls back to the package default;
	// a negative value disables the cap.
	MaxCandidates int
}

// DefaultGapOptions returns the standard gap computation settings.
func DefaultGapOptions() GapOptions {
	return GapOptions{
		StrikingDistance: 10,
		MaxCandidates:    100,
	}
}

// -----------------------------------------------------------------------
// Gap Computation
// -----------------------------------------------------------------------

// ComputeGaps set-differences the target's keyword coverage against the
// union of competitor coverage and returns the deduplicated candidates.
//
// A keyword is a candidate iff at least one competitor ranks for it AND
// either the target does not rank for it at all, or the target's position
// trails the best competitor's by more than opts.StrikingDistance.  The best
// competitor is the one with the lowest rank position; ties break by higher
// search volume, then lexicographically by domain so output is stable.
//
// Candidates are ordered by representative search volume descending, then by
// keyword text ascending, and capped at opts.MaxCandidates.
func ComputeGaps(target *kw.DomainSet, competitors map[string]*kw.DomainSet, opts GapOptions) []GapCandidate {
	if len(competitors) == 0 {
		return nil
	}

	// Union of competitor keywords, deduplicated by normalized text.
	union := make(map[string]struct{})
	for _, set := range competitors {
		if set == nil {
			continue
		}
		for _, k := range set.Keywords() {
			union[k] = struct{}{}
		}
	}

	candidates := make([]GapCandidate, 0, len(union))

	for keyword := range union {
		positions := make(map[string]int)
		var best kw.Record
		bestDomain := ""

		for domain, set := range competitors {
			rec, ok := set.Get(keyword)
			if !ok {
				continue
			}
			positions[domain] = rec.RankPosition
			if !rec.Ranked() {
				continue
			}
			if bestDomain == "" || competitorBeats(rec, domain, best, bestDomain) {
				best = rec
				bestDomain = domain
			}
		}

		// No competitor actually ranks: nothing to beat, not a gap.
		if bestDomain == "" {
			continue
		}

		targetRank := 0
		targetHasIt := false
		if rec, ok := target.Get(keyword); ok && rec.Ranked() {
			targetHasIt = true
			targetRank = rec.RankPosition
		}

		if targetHasIt && targetRank-best.RankPosition <= opts.StrikingDistance {
			continue
		}

		candidates = append(candidates, GapCandidate{
			Keyword:              keyword,
			TargetHasIt:          targetHasIt,
			TargetRank:           targetRank,
			CompetitorPositions:  positions,
			BestCompetitorDomain: bestDomain,
			BestCompetitorRank:   best.RankPosition,
			Representative:       best,
		})
	}

	// Highest-volume keywords first; keyword text ascending on ties.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Representative.SearchVolume != candidates[j].Representative.SearchVolume {
			return candidates[i].Representative.SearchVolume > candidates[j].Representative.SearchVolume
		}
		return candidates[i].Keyword < candidates[j].Keyword
	})

	if opts.MaxCandidates > 0 && len(candidates) > opts.MaxCandidates {
		candidates = candidates[:opts.MaxCandidates]
	}

	return candidates
}

// competitorBeats reports whether (rec, domain) outranks the current best
// competitor record.  Lower rank wins; ties break by higher search volume,
// then lexicographically by domain name.
func competitorBeats(rec kw.Record, domain string, best kw.Record, bestDomain string) bool {
	if rec.RankPosition != best.RankPosition {
		return rec.RankPosition < best.RankPosition
	}
	if rec.SearchVolume != best.SearchVolume {
		return rec.SearchVolume > best.SearchVolume
	}
	return domain < bestDomain
}
