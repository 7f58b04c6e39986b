// Package reporting assembles analysis results and peripheral audit data
// into report-ready structures and renders them for delivery.
package reporting

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rankscope/rankscope/internal/application/analysis"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
	"github.com/rankscope/rankscope/pkg/types/common"
)

// -----------------------------------------------------------------------
// Report Data Types
// -----------------------------------------------------------------------

// ReportData is the complete input for template-driven rendering.  All
// computation happens upstream; rendering only formats what is here.
type ReportData struct {
	RunID        common.ID `json:"run_id"`
	TargetDomain string    `json:"target_domain"`
	TargetName   string    `json:"target_name,omitempty"`
	GeneratedAt  time.Time `json:"generated_at"`

	// Opportunities is the full scored list in ranking order.
	Opportunities []analysis.ScoredOpportunity `json:"opportunities"`

	Roadmap        []analysis.RoadmapSlot    `json:"roadmap"`
	CategoryCounts map[analysis.Category]int `json:"category_counts"`

	NoGapsFound      bool     `json:"no_gaps_found"`
	EmptyCompetitors []string `json:"empty_competitors,omitempty"`
	Competitors      []string `json:"competitors"`

	// Performance, GEO findings, presence signals and owned-traffic data are
	// additive report content collected by the audit collaborators.  They
	// never influence scoring and are carried as opaque structured blobs.
	Performance json.RawMessage `json:"performance,omitempty"`
	GEOFindings json.RawMessage `json:"geo_findings,omitempty"`
	Signals     json.RawMessage `json:"signals,omitempty"`
	Traffic     json.RawMessage `json:"traffic,omitempty"`
}

// AssembleRequest carries everything the assembler merges into one report.
type AssembleRequest struct {
	Result      *analysis.AnalysisResult `json:"-"`
	TargetName  string                   `json:"target_name,omitempty"`
	Competitors []string                 `json:"competitors"`
	Performance json.RawMessage          `json:"performance,omitempty"`
	GEOFindings json.RawMessage          `json:"geo_findings,omitempty"`
	Signals     json.RawMessage          `json:"signals,omitempty"`
	Traffic     json.RawMessage          `json:"traffic,omitempty"`
}

// -----------------------------------------------------------------------
// Service Interface
// -----------------------------------------------------------------------

// Assembler merges analysis output with peripheral audit blobs into one
// ReportData structure.
type Assembler interface {
	// Assemble builds the report structure for one completed analysis run.
	Assemble(ctx context.Context, req *AssembleRequest) (*ReportData, error)
}

// -----------------------------------------------------------------------
// Service Implementation
// -----------------------------------------------------------------------

type assemblerImpl struct {
	logger logging.Logger
}

// AssemblerConfig holds configuration for constructing the assembler.
type AssemblerConfig struct {
	Logger logging.Logger
}

// NewAssembler constructs an Assembler.
func NewAssembler(cfg AssemblerConfig) (Assembler, error) {
	if cfg.Logger == nil {
		return nil, errors.NewValidation("report Assembler requires Logger")
	}
	return &assemblerImpl{logger: cfg.Logger}, nil
}

// Assemble builds the report structure for one completed analysis run.
// Missing audit blobs are fine; the report renders without those sections.
func (a *assemblerImpl) Assemble(ctx context.Context, req *AssembleRequest) (*ReportData, error) {
	if req == nil || req.Result == nil {
		return nil, errors.NewValidation("assemble request requires an analysis result")
	}

	res := req.Result
	data := &ReportData{
		RunID:            res.RunID,
		TargetDomain:     res.TargetDomain,
		TargetName:       req.TargetName,
		GeneratedAt:      res.GeneratedAt,
		Opportunities:    res.Opportunities,
		Roadmap:          res.Roadmap,
		CategoryCounts:   res.CategoryCounts,
		NoGapsFound:      res.NoGapsFound,
		EmptyCompetitors: res.EmptyCompetitors,
		Competitors:      req.Competitors,
		Performance:      req.Performance,
		GEOFindings:      req.GEOFindings,
		Signals:          req.Signals,
		Traffic:          req.Traffic,
	}

	a.logger.Info("report data assembled",
		logging.String("run_id", res.RunID.String()),
		logging.String("target", res.TargetDomain),
		logging.Int("opportunities", len(data.Opportunities)),
		logging.Bool("has_performance", len(data.Performance) > 0),
		logging.Bool("has_geo_findings", len(data.GEOFindings) > 0),
		logging.Bool("has_signals", len(data.Signals) > 0),
		logging.Bool("has_traffic", len(data.Traffic) > 0),
	)

	return data, nil
}
