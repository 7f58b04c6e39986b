package analysis

import (
	"math"
	"sort"

	"github.com/rankscope/rankscope/pkg/errors"
	kw "github.com/rankscope/rankscope/pkg/types/keyword"
)

// -----------------------------------------------------------------------
// Scoring Types
// -----------------------------------------------------------------------

// Rationale tags recorded on scored opportunities.  Metadata only; nothing
// downstream branches on them.
const (
	TagHighVolume          = "high-volume"
	TagLowDifficulty       = "low-difficulty"
	TagTransactionalIntent = "transactional-intent"
	TagCommercialIntent    = "commercial-intent"
	TagStrikingDistance    = "striking-distance"
)

// ScoredOpportunity is one gap keyword with its composite score and
// category.  Immutable after creation; re-running a pipeline produces fresh
// values rather than mutating old ones.
type ScoredOpportunity struct {
	Keyword       string    `json:"keyword"`
	Score         float64   `json:"score"`
	Category      Category  `json:"category"`
	RationaleTags []string  `json:"rationale_tags"`
	SearchVolume  int       `json:"search_volume"`
	Difficulty    float64   `json:"difficulty"`
	CPC           float64   `json:"cpc"`
	Intent        kw.Intent `json:"intent"`

	TargetHasIt          bool   `json:"target_has_it"`
	TargetRank           int    `json:"target_rank,omitempty"`
	BestCompetitorDomain string `json:"best_competitor_domain"`
	BestCompetitorRank   int    `json:"best_competitor_rank"`
}

// ScoringPolicy is the tunable weighted-sum scoring strategy.  Weights apply
// to sub-scores each clamped to [0,1]; the composite is scaled to [0,100].
type ScoringPolicy struct {
	VolumeCeiling       int     `json:"volume_ceiling"`
	VolumeWeight        float64 `json:"volume_weight"`
	AttainabilityWeight float64 `json:"attainability_weight"`
	CommercialWeight    float64 `json:"commercial_weight"`
}

// DefaultScoringPolicy returns the standard weights and volume ceiling.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		VolumeCeiling:       10000,
		VolumeWeight:        0.40,
		AttainabilityWeight: 0.35,
		CommercialWeight:    0.25,
	}
}

// Validate checks the policy is usable.
func (p ScoringPolicy) Validate() error {
	if p.VolumeCeiling <= 0 {
		return errors.NewValidation("scoring policy requires a positive volume ceiling")
	}
	if p.VolumeWeight < 0 || p.AttainabilityWeight < 0 || p.CommercialWeight < 0 {
		return errors.NewValidation("scoring weights must be non-negative")
	}
	sum := p.VolumeWeight + p.AttainabilityWeight + p.CommercialWeight
	if math.Abs(sum-1.0) > 0.001 {
		return errors.Newf(errors.ErrCodeValidation, "scoring weights must sum to 1.0, got %.3f", sum)
	}
	return nil
}

// -----------------------------------------------------------------------
// Scoring
// -----------------------------------------------------------------------

// Score computes the composite opportunity score for one gap candidate.
// The result's Category is left unset; the categorizer assigns it.
func (p ScoringPolicy) Score(c GapCandidate) ScoredOpportunity {
	rep := c.Representative

	volumeScore := clamp01(float64(rep.SearchVolume) / float64(p.VolumeCeiling))
	attainabilityScore := clamp01(1.0 - rep.Difficulty/100.0)
	commercialScore := commercialFactor(rep.Intent)

	raw := p.VolumeWeight*volumeScore +
		p.AttainabilityWeight*attainabilityScore +
		p.CommercialWeight*commercialScore
	score := math.Round(100*raw*100) / 100

	return ScoredOpportunity{
		Keyword:              c.Keyword,
		Score:                score,
		RationaleTags:        rationaleTags(c, volumeScore),
		SearchVolume:         rep.SearchVolume,
		Difficulty:           rep.Difficulty,
		CPC:                  rep.CPC,
		Intent:               rep.Intent,
		TargetHasIt:          c.TargetHasIt,
		TargetRank:           c.TargetRank,
		BestCompetitorDomain: c.BestCompetitorDomain,
		BestCompetitorRank:   c.BestCompetitorRank,
	}
}

// commercialFactor maps searcher intent onto the commercial sub-score.
func commercialFactor(intent kw.Intent) float64 {
	switch intent {
	case kw.IntentTransactional, kw.IntentCommercial:
		return 1.0
	case kw.IntentNavigational:
		return 0.6
	case kw.IntentInformational:
		return 0.3
	default:
		return 0.1
	}
}

// rationaleTags records which signals drove the score, sorted for stable
// output.
func rationaleTags(c GapCandidate, volumeScore float64) []string {
	tags := make([]string, 0, 3)
	if volumeScore >= 0.5 {
		tags = append(tags, TagHighVolume)
	}
	if c.Representative.Difficulty <= 30 {
		tags = append(tags, TagLowDifficulty)
	}
	switch c.Representative.Intent {
	case kw.IntentTransactional:
		tags = append(tags, TagTransactionalIntent)
	case kw.IntentCommercial:
		tags = append(tags, TagCommercialIntent)
	}
	if c.TargetHasIt {
		tags = append(tags, TagStrikingDistance)
	}
	sort.Strings(tags)
	return tags
}

// SortOpportunities orders opportunities by score descending, breaking ties
// by higher search volume, then by keyword text ascending.  The same order
// is used for the full opportunity list and for roadmap assignment.
func SortOpportunities(opps []ScoredOpportunity) {
	sort.Slice(opps, func(i, j int) bool {
		if opps[i].Score != opps[j].Score {
			return opps[i].Score > opps[j].Score
		}
		if opps[i].SearchVolume != opps[j].SearchVolume {
			return opps[i].SearchVolume > opps[j].SearchVolume
		}
		return opps[i].Keyword < opps[j].Keyword
	})
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
