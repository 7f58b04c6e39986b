package analysis

import (
	"fmt"
	"testing"
)

// rankedOpps builds n opportunities with strictly descending scores.
func rankedOpps(n int) []ScoredOpportunity {
	opps := make([]ScoredOpportunity, n)
	for i := 0; i < n; i++ {
		opps[i] = ScoredOpportunity{
			Keyword:  fmt.Sprintf("keyword-%03d", i),
			Score:    float64(100 - i),
			Category: CategoryLowPriority,
		}
	}
	return opps
}

func TestBuildRoadmap_CapacitySplit(t *testing.T) {
	opps := rankedOpps(50)
	capacity := DefaultRoadmapCapacity()

	slots := BuildRoadmap(opps, capacity)

	if len(slots) != 3 {
		t.Fatalf("got %d slots, want 3", len(slots))
	}
	if slots[0].Window != WindowDay30 || slots[1].Window != WindowDay60 || slots[2].Window != WindowDay90 {
		t.Fatalf("windows out of order: %v %v %v", slots[0].Window, slots[1].Window, slots[2].Window)
	}
	if len(slots[0].Opportunities) != 10 || len(slots[1].Opportunities) != 15 || len(slots[2].Opportunities) != 20 {
		t.Fatalf("slot sizes = %d/%d/%d, want 10/15/20",
			len(slots[0].Opportunities), len(slots[1].Opportunities), len(slots[2].Opportunities))
	}

	// No duplicates across windows, and everything comes from the input.
	seen := make(map[string]bool)
	for _, slot := range slots {
		for _, opp := range slot.Opportunities {
			if seen[opp.Keyword] {
				t.Fatalf("keyword %q appears in more than one window", opp.Keyword)
			}
			seen[opp.Keyword] = true
		}
	}
	if len(seen) != 45 {
		t.Errorf("roadmap holds %d keywords, want 45 (5 beyond capacity omitted)", len(seen))
	}

	// Score order: day_30 holds the top scores.
	if slots[0].Opportunities[0].Keyword != "keyword-000" {
		t.Errorf("first day_30 slot = %q, want keyword-000", slots[0].Opportunities[0].Keyword)
	}
	if slots[2].Opportunities[19].Keyword != "keyword-044" {
		t.Errorf("last day_90 slot = %q, want keyword-044", slots[2].Opportunities[19].Keyword)
	}
}

func TestBuildRoadmap_FewerThanCapacity(t *testing.T) {
	slots := BuildRoadmap(rankedOpps(4), DefaultRoadmapCapacity())

	if len(slots[0].Opportunities) != 4 {
		t.Errorf("day_30 = %d, want 4", len(slots[0].Opportunities))
	}
	if len(slots[1].Opportunities) != 0 || len(slots[2].Opportunities) != 0 {
		t.Errorf("later windows should be empty: %d/%d",
			len(slots[1].Opportunities), len(slots[2].Opportunities))
	}
}

func TestBuildRoadmap_Empty(t *testing.T) {
	slots := BuildRoadmap(nil, DefaultRoadmapCapacity())

	if len(slots) != 3 {
		t.Fatalf("got %d slots, want 3 even when empty", len(slots))
	}
	for _, slot := range slots {
		if slot.Opportunities == nil || len(slot.Opportunities) != 0 {
			t.Errorf("window %s should hold an empty, non-nil list", slot.Window)
		}
	}
}

func TestBuildRoadmap_QuickWinPromotion(t *testing.T) {
	// Quick win ranks 8th by raw score; it must still land in one of the
	// first three day_30 slots.
	opps := rankedOpps(12)
	opps[7].Category = CategoryQuickWin

	slots := BuildRoadmap(opps, DefaultRoadmapCapacity())

	found := -1
	for i := 0; i < 3; i++ {
		if slots[0].Opportunities[i].Category == CategoryQuickWin {
			found = i
			break
		}
	}
	if found != 2 {
		t.Fatalf("quick win at day_30 index %d, want promotion into slot 2", found)
	}

	// The displaced opportunities shift down, none are lost.
	if slots[0].Opportunities[1].Keyword != "keyword-001" {
		t.Errorf("slot 1 = %q, want keyword-001 untouched", slots[0].Opportunities[1].Keyword)
	}
	if slots[0].Opportunities[3].Keyword != "keyword-002" {
		t.Errorf("slot 3 = %q, want displaced keyword-002", slots[0].Opportunities[3].Keyword)
	}
	total := 0
	for _, slot := range slots {
		total += len(slot.Opportunities)
	}
	if total != 12 {
		t.Errorf("roadmap holds %d items, want 12", total)
	}
}

func TestBuildRoadmap_QuickWinAlreadyInReservedRange(t *testing.T) {
	opps := rankedOpps(12)
	opps[1].Category = CategoryQuickWin
	opps[9].Category = CategoryQuickWin

	slots := BuildRoadmap(opps, DefaultRoadmapCapacity())

	// No promotion needed: pure score order preserved.
	for i, opp := range slots[0].Opportunities {
		want := fmt.Sprintf("keyword-%03d", i)
		if opp.Keyword != want {
			t.Errorf("day_30[%d] = %q, want %q", i, opp.Keyword, want)
		}
	}
}

func TestBuildRoadmap_DoesNotMutateInput(t *testing.T) {
	opps := rankedOpps(12)
	opps[7].Category = CategoryQuickWin
	before := make([]string, len(opps))
	for i, o := range opps {
		before[i] = o.Keyword
	}

	BuildRoadmap(opps, DefaultRoadmapCapacity())

	for i, o := range opps {
		if o.Keyword != before[i] {
			t.Fatalf("input mutated at %d: %q -> %q", i, before[i], o.Keyword)
		}
	}
}

func TestBuildRoadmap_SmallDay30Capacity(t *testing.T) {
	opps := rankedOpps(6)
	opps[5].Category = CategoryQuickWin

	slots := BuildRoadmap(opps, RoadmapCapacity{Day30: 2, Day60: 2, Day90: 2})

	// Reservation shrinks to the day_30 capacity.
	if slots[0].Opportunities[1].Category != CategoryQuickWin {
		t.Errorf("quick win not promoted into last day_30 slot: %+v", slots[0].Opportunities)
	}
}
