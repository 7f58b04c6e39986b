package analysis

import (
	kw "github.com/rankscope/rankscope/pkg/types/keyword"
)

// Category buckets a scored opportunity into one actionable class.
type Category string

const (
	CategoryQuickWin        Category = "quick_win"
	CategoryProductGap      Category = "product_gap"
	CategoryContentGap      Category = "content_gap"
	CategoryHighOpportunity Category = "high_opportunity"
	CategoryLowPriority     Category = "low_priority"
)

// Categorization thresholds.  Quick wins and product gaps are matched before
// the generic high-opportunity bucket so low-effort and revenue-adjacent
// keywords are never shadowed by it.
const (
	quickWinMaxDifficulty = 30.0
	quickWinMinVolume     = 50
	highOpportunityScore  = 70.0
)

// Categorize assigns exactly one category to a scored opportunity.  Rules
// are evaluated in precedence order; the first match wins, so the buckets
// are mutually exclusive by construction.
func Categorize(opp ScoredOpportunity) Category {
	switch {
	case opp.Difficulty <= quickWinMaxDifficulty && !opp.TargetHasIt && opp.SearchVolume >= quickWinMinVolume:
		return CategoryQuickWin
	case (opp.Intent == kw.IntentTransactional || opp.Intent == kw.IntentCommercial) && !opp.TargetHasIt:
		return CategoryProductGap
	case opp.Intent == kw.IntentInformational && !opp.TargetHasIt:
		return CategoryContentGap
	case opp.Score >= highOpportunityScore:
		return CategoryHighOpportunity
	default:
		return CategoryLowPriority
	}
}

// CountByCategory tallies opportunities per category.  Every category key is
// present in the result so report templates can render zero counts.
func CountByCategory(opps []ScoredOpportunity) map[Category]int {
	counts := map[Category]int{
		CategoryQuickWin:        0,
		CategoryProductGap:      0,
		CategoryContentGap:      0,
		CategoryHighOpportunity: 0,
		CategoryLowPriority:     0,
	}
	for _, opp := range opps {
		counts[opp.Category]++
	}
	return counts
}
