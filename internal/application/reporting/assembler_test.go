package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rankscope/rankscope/internal/application/analysis"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/types/common"
)

func sampleResult() *analysis.AnalysisResult {
	opps := []analysis.ScoredOpportunity{
		{
			Keyword: "running shoes for trail", Score: 60.85, Category: analysis.CategoryQuickWin,
			SearchVolume: 2400, Difficulty: 25, Intent: "transactional",
			BestCompetitorDomain: "rival.com", BestCompetitorRank: 3,
			RationaleTags: []string{analysis.TagLowDifficulty, analysis.TagTransactionalIntent},
		},
		{
			Keyword: "trail gear guide", Score: 40.1, Category: analysis.CategoryContentGap,
			SearchVolume: 600, Difficulty: 55, Intent: "informational",
			BestCompetitorDomain: "other.com", BestCompetitorRank: 7,
			RationaleTags: []string{},
		},
	}
	return &analysis.AnalysisResult{
		RunID:          common.ID("3f1b2c9a-0000-4000-8000-000000000002"),
		TargetDomain:   "target.com",
		GeneratedAt:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Opportunities:  opps,
		Roadmap:        analysis.BuildRoadmap(opps, analysis.DefaultRoadmapCapacity()),
		CategoryCounts: analysis.CountByCategory(opps),
	}
}

func TestAssembler_Assemble(t *testing.T) {
	asm, err := NewAssembler(AssemblerConfig{Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("NewAssembler: %v", err)
	}

	perf := json.RawMessage(`{"mobile":{"score":62},"desktop":{"score":88}}`)
	geo := json.RawMessage(`{"homepage":{"schemas":["Organization"]}}`)
	signals := json.RawMessage(`{"social_profiles":[{"platform":"twitter","found":true}]}`)
	traffic := json.RawMessage(`{"search_console":{"total_clicks":120}}`)

	data, err := asm.Assemble(context.Background(), &AssembleRequest{
		Result:      sampleResult(),
		TargetName:  "Target Inc",
		Competitors: []string{"rival.com", "other.com"},
		Performance: perf,
		GEOFindings: geo,
		Signals:     signals,
		Traffic:     traffic,
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if data.TargetDomain != "target.com" || data.TargetName != "Target Inc" {
		t.Errorf("target header wrong: %+v", data)
	}
	if len(data.Opportunities) != 2 || len(data.Roadmap) != 3 {
		t.Errorf("analysis payload not carried through")
	}
	if string(data.Performance) != string(perf) {
		t.Error("performance blob must pass through untouched")
	}
	if string(data.GEOFindings) != string(geo) {
		t.Error("geo blob must pass through untouched")
	}
	if string(data.Signals) != string(signals) || string(data.Traffic) != string(traffic) {
		t.Error("signals and traffic blobs must pass through untouched")
	}
}

func TestAssembler_RequiresResult(t *testing.T) {
	asm, _ := NewAssembler(AssemblerConfig{Logger: logging.NewNop()})

	if _, err := asm.Assemble(context.Background(), nil); err == nil {
		t.Error("expected error for nil request")
	}
	if _, err := asm.Assemble(context.Background(), &AssembleRequest{}); err == nil {
		t.Error("expected error for missing analysis result")
	}
}

func TestAssembler_BlobsOptional(t *testing.T) {
	asm, _ := NewAssembler(AssemblerConfig{Logger: logging.NewNop()})

	data, err := asm.Assemble(context.Background(), &AssembleRequest{
		Result:      sampleResult(),
		Competitors: []string{"rival.com"},
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if data.Performance != nil || data.GEOFindings != nil {
		t.Error("absent blobs should stay nil")
	}
}

func TestHTMLRenderer_RenderHTML(t *testing.T) {
	asm, _ := NewAssembler(AssemblerConfig{Logger: logging.NewNop()})
	renderer, err := NewHTMLRenderer(RendererConfig{Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("NewHTMLRenderer: %v", err)
	}

	data, err := asm.Assemble(context.Background(), &AssembleRequest{
		Result:      sampleResult(),
		TargetName:  "Target Inc",
		Competitors: []string{"rival.com", "other.com"},
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	var buf bytes.Buffer
	if err := renderer.RenderHTML(context.Background(), data, &buf); err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}

	html := buf.String()
	for _, want := range []string{
		"Target Inc (target.com)",
		"running shoes for trail",
		"Quick Win",
		"First 30 Days",
		"rival.com",
		"60.85",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered report missing %q", want)
		}
	}
}

func TestHTMLRenderer_NoGapsFound(t *testing.T) {
	renderer, _ := NewHTMLRenderer(RendererConfig{Logger: logging.NewNop()})

	data := &ReportData{
		RunID:        common.ID("3f1b2c9a-0000-4000-8000-000000000003"),
		TargetDomain: "target.com",
		GeneratedAt:  time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		NoGapsFound:  true,
		Competitors:  []string{"rival.com"},
	}

	var buf bytes.Buffer
	if err := renderer.RenderHTML(context.Background(), data, &buf); err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	if !strings.Contains(buf.String(), "No keyword gaps found") {
		t.Error("empty-gap report should state the no-gap terminal state")
	}
}

func TestHTMLRenderer_NilData(t *testing.T) {
	renderer, _ := NewHTMLRenderer(RendererConfig{Logger: logging.NewNop()})
	if err := renderer.RenderHTML(context.Background(), nil, &bytes.Buffer{}); err == nil {
		t.Error("expected error for nil report data")
	}
}
