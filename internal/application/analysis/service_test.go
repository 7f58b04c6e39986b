package analysis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
	"github.com/rankscope/rankscope/pkg/types/common"
	kw "github.com/rankscope/rankscope/pkg/types/keyword"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(ServiceConfig{Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func testRequest(target *kw.DomainSet, competitors map[string]*kw.DomainSet) *AnalyzeRequest {
	return &AnalyzeRequest{
		RunID:       common.ID("3f1b2c9a-0000-4000-8000-000000000001"),
		GeneratedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Target:      target,
		Competitors: competitors,
	}
}

func TestNewService_RequiresLogger(t *testing.T) {
	if _, err := NewService(ServiceConfig{}); err == nil {
		t.Fatal("expected error for missing logger")
	}
}

func TestNewService_GapOptionsDefaultIndependently(t *testing.T) {
	svc, err := NewService(ServiceConfig{
		Logger: logging.NewNop(),
		Gaps:   GapOptions{MaxCandidates: 25},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	impl := svc.(*serviceImpl)
	if impl.gaps.StrikingDistance != DefaultGapOptions().StrikingDistance {
		t.Fatalf("striking distance = %d, want default %d",
			impl.gaps.StrikingDistance, DefaultGapOptions().StrikingDistance)
	}
	if impl.gaps.MaxCandidates != 25 {
		t.Fatalf("max candidates = %d, want 25", impl.gaps.MaxCandidates)
	}

	svc, err = NewService(ServiceConfig{
		Logger: logging.NewNop(),
		Gaps:   GapOptions{StrikingDistance: 3, MaxCandidates: -1},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	impl = svc.(*serviceImpl)
	if impl.gaps.StrikingDistance != 3 || impl.gaps.MaxCandidates != -1 {
		t.Fatalf("explicit options not kept: %+v", impl.gaps)
	}
}

func TestNewService_RejectsBadWeights(t *testing.T) {
	_, err := NewService(ServiceConfig{
		Logger:  logging.NewNop(),
		Scoring: ScoringPolicy{VolumeCeiling: 1000, VolumeWeight: 0.9, AttainabilityWeight: 0.9, CommercialWeight: 0.9},
	})
	if err == nil {
		t.Fatal("expected error for weights not summing to 1.0")
	}
}

func TestAnalyze_FatalConfigChecks(t *testing.T) {
	svc := newTestService(t)
	target := makeSet("target.com")

	tests := []struct {
		name string
		req  *AnalyzeRequest
	}{
		{"nil request", nil},
		{"no target", testRequest(nil, map[string]*kw.DomainSet{"a.com": makeSet("a.com")})},
		{"zero competitors", testRequest(target, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Analyze(context.Background(), tt.req)
			if err == nil {
				t.Fatal("expected fatal configuration error")
			}
			if !errors.IsCode(err, errors.ErrCodeInvalidRunConfig) {
				t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.ErrCodeInvalidRunConfig)
			}
			if res != nil {
				t.Error("no result should be produced on fatal config error")
			}
		})
	}
}

func TestAnalyze_EndToEnd(t *testing.T) {
	svc := newTestService(t)

	target := makeSet("target.com",
		kw.Record{Keyword: "covered keyword", RankPosition: 2, SearchVolume: 800},
	)
	competitors := map[string]*kw.DomainSet{
		"rival.com": makeSet("rival.com",
			kw.Record{Keyword: "running shoes for trail", RankPosition: 3, SearchVolume: 2400, Difficulty: 25, Intent: kw.IntentTransactional},
			kw.Record{Keyword: "covered keyword", RankPosition: 4, SearchVolume: 800},
		),
		"empty.com": kw.NewDomainSet("empty.com"),
	}

	res, err := svc.Analyze(context.Background(), testRequest(target, competitors))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if res.TargetDomain != "target.com" {
		t.Errorf("TargetDomain = %q", res.TargetDomain)
	}
	if len(res.Opportunities) != 1 {
		t.Fatalf("got %d opportunities, want 1", len(res.Opportunities))
	}

	opp := res.Opportunities[0]
	if opp.Keyword != "running shoes for trail" {
		t.Fatalf("keyword = %q", opp.Keyword)
	}
	// 100*(0.4*0.24 + 0.35*0.75 + 0.25*1.0)
	if opp.Score != 60.85 {
		t.Errorf("score = %v, want 60.85", opp.Score)
	}
	// Quick win takes precedence: difficulty <= 30, target absent, volume >= 50.
	if opp.Category != CategoryQuickWin {
		t.Errorf("category = %v, want %v", opp.Category, CategoryQuickWin)
	}

	if res.NoGapsFound {
		t.Error("NoGapsFound should be false")
	}
	if len(res.EmptyCompetitors) != 1 || res.EmptyCompetitors[0] != "empty.com" {
		t.Errorf("EmptyCompetitors = %v, want [empty.com]", res.EmptyCompetitors)
	}
	if res.CategoryCounts[CategoryQuickWin] != 1 {
		t.Errorf("CategoryCounts = %v", res.CategoryCounts)
	}
	if len(res.Roadmap) != 3 || len(res.Roadmap[0].Opportunities) != 1 {
		t.Errorf("unexpected roadmap shape")
	}
}

func TestAnalyze_NoGapsFound(t *testing.T) {
	svc := newTestService(t)

	target := makeSet("target.com",
		kw.Record{Keyword: "only keyword", RankPosition: 1, SearchVolume: 100},
	)
	competitors := map[string]*kw.DomainSet{
		"rival.com": makeSet("rival.com",
			kw.Record{Keyword: "only keyword", RankPosition: 5, SearchVolume: 100},
		),
	}

	res, err := svc.Analyze(context.Background(), testRequest(target, competitors))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !res.NoGapsFound {
		t.Error("NoGapsFound should be true when the target fully covers competitors")
	}
	if len(res.Opportunities) != 0 {
		t.Errorf("got %d opportunities, want 0", len(res.Opportunities))
	}
	if len(res.Roadmap) != 3 {
		t.Errorf("a report structure is still produced: %d slots", len(res.Roadmap))
	}
}

func TestAnalyze_GapInvariant(t *testing.T) {
	svc := newTestService(t)

	target := makeSet("target.com",
		kw.Record{Keyword: "strong keyword", RankPosition: 1, SearchVolume: 900},
		kw.Record{Keyword: "weak keyword", RankPosition: 50, SearchVolume: 900},
	)
	competitors := map[string]*kw.DomainSet{
		"rival.com": makeSet("rival.com",
			kw.Record{Keyword: "strong keyword", RankPosition: 2, SearchVolume: 900},
			kw.Record{Keyword: "weak keyword", RankPosition: 3, SearchVolume: 900},
			kw.Record{Keyword: "new keyword", RankPosition: 4, SearchVolume: 900},
		),
	}

	res, err := svc.Analyze(context.Background(), testRequest(target, competitors))
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	for _, opp := range res.Opportunities {
		rec, ok := target.Get(opp.Keyword)
		if !ok || !rec.Ranked() {
			continue // absent from target: valid gap
		}
		if rec.RankPosition-opp.BestCompetitorRank <= 10 {
			t.Errorf("keyword %q violates the gap invariant: target %d vs best %d",
				opp.Keyword, rec.RankPosition, opp.BestCompetitorRank)
		}
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	svc := newTestService(t)

	target := makeSet("target.com",
		kw.Record{Keyword: "weak keyword", RankPosition: 40, SearchVolume: 100},
	)
	competitors := map[string]*kw.DomainSet{
		"a.com": makeSet("a.com",
			kw.Record{Keyword: "weak keyword", RankPosition: 2, SearchVolume: 100, Difficulty: 55, Intent: kw.IntentCommercial},
			kw.Record{Keyword: "tie one", RankPosition: 5, SearchVolume: 300, Difficulty: 20, Intent: kw.IntentInformational},
		),
		"b.com": makeSet("b.com",
			kw.Record{Keyword: "tie two", RankPosition: 5, SearchVolume: 300, Difficulty: 20, Intent: kw.IntentInformational},
			kw.Record{Keyword: "weak keyword", RankPosition: 8, SearchVolume: 100},
		),
	}

	req := testRequest(target, competitors)

	first, err := svc.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := svc.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal first: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal second: %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("re-run on identical inputs is not byte-identical:\n%s\n%s", a, b)
	}
}
