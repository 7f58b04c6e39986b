package analysis

// Window identifies one roadmap implementation horizon.
type Window string

const (
	WindowDay30 Window = "day_30"
	WindowDay60 Window = "day_60"
	WindowDay90 Window = "day_90"
)

// RoadmapSlot is one window's ordered share of the opportunity list.
type RoadmapSlot struct {
	Window        Window              `json:"window"`
	Opportunities []ScoredOpportunity `json:"opportunities"`
}

// RoadmapCapacity bounds how many opportunities each window accepts.
type RoadmapCapacity struct {
	Day30 int `json:"day_30"`
	Day60 int `json:"day_60"`
	Day90 int `json:"day_90"`
}

// DefaultRoadmapCapacity returns the standard per-window limits.
func DefaultRoadmapCapacity() RoadmapCapacity {
	return RoadmapCapacity{Day30: 10, Day60: 15, Day90: 20}
}

// quickWinReservedSlots is how many leading day_30 positions the best quick
// win may be promoted into.
const quickWinReservedSlots = 3

// BuildRoadmap distributes opportunities into the three windows by score
// order: the top Day30 items fill day_30, the next Day60 fill day_60, the
// next Day90 fill day_90, and anything beyond total capacity is left out of
// the roadmap (it stays in the full opportunity list).
//
// If any quick win exists, one is guaranteed a place among the first three
// day_30 slots: when pure score order would leave them all outside that
// range, the highest-scored quick win is promoted into the last reserved
// slot.  This is the only deviation from score order.
//
// The input is not modified.  The result always has exactly three slots, in
// day_30, day_60, day_90 order.
func BuildRoadmap(opps []ScoredOpportunity, capacity RoadmapCapacity) []RoadmapSlot {
	ordered := make([]ScoredOpportunity, len(opps))
	copy(ordered, opps)
	SortOpportunities(ordered)

	ordered = promoteQuickWin(ordered, capacity.Day30)

	slots := []RoadmapSlot{
		{Window: WindowDay30, Opportunities: []ScoredOpportunity{}},
		{Window: WindowDay60, Opportunities: []ScoredOpportunity{}},
		{Window: WindowDay90, Opportunities: []ScoredOpportunity{}},
	}

	cut := func(n int) []ScoredOpportunity {
		if n > len(ordered) {
			n = len(ordered)
		}
		if n < 0 {
			n = 0
		}
		taken := ordered[:n]
		ordered = ordered[n:]
		return taken
	}

	slots[0].Opportunities = append(slots[0].Opportunities, cut(capacity.Day30)...)
	slots[1].Opportunities = append(slots[1].Opportunities, cut(capacity.Day60)...)
	slots[2].Opportunities = append(slots[2].Opportunities, cut(capacity.Day90)...)

	return slots
}

// promoteQuickWin moves the best quick win into the reserved day_30 range
// when score order alone would exclude it.  Relative order of everything
// else is preserved.
func promoteQuickWin(ordered []ScoredOpportunity, day30Capacity int) []ScoredOpportunity {
	reserved := quickWinReservedSlots
	if day30Capacity < reserved {
		reserved = day30Capacity
	}
	if reserved <= 0 {
		return ordered
	}

	limit := reserved
	if limit > len(ordered) {
		limit = len(ordered)
	}
	for i := 0; i < limit; i++ {
		if ordered[i].Category == CategoryQuickWin {
			return ordered
		}
	}

	// First quick win past the reserved range is also the highest scored.
	for i := limit; i < len(ordered); i++ {
		if ordered[i].Category != CategoryQuickWin {
			continue
		}
		promoted := ordered[i]
		at := reserved - 1
		copy(ordered[at+1:i+1], ordered[at:i])
		ordered[at] = promoted
		return ordered
	}

	return ordered
}
