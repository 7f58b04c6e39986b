package analysis

import (
	"context"
	"sort"
	"time"

	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
	"github.com/rankscope/rankscope/pkg/types/common"
	kw "github.com/rankscope/rankscope/pkg/types/keyword"
)

// -----------------------------------------------------------------------
// Request / Response DTOs
// -----------------------------------------------------------------------

// AnalyzeRequest carries the normalized inputs for one analysis run.  RunID
// and GeneratedAt are supplied by the caller: the pipeline itself reads no
// clock and no randomness, so identical requests produce identical results.
type AnalyzeRequest struct {
	RunID       common.ID                `json:"run_id"`
	GeneratedAt time.Time                `json:"generated_at"`
	Target      *kw.DomainSet            `json:"-"`
	Competitors map[string]*kw.DomainSet `json:"-"`
}

// AnalysisResult is the terminal artifact of the core pipeline, handed to
// the report assembler.
type AnalysisResult struct {
	RunID        common.ID `json:"run_id"`
	TargetDomain string    `json:"target_domain"`
	GeneratedAt  time.Time `json:"generated_at"`

	// Opportunities is the full scored list in ranking order, including
	// items that did not fit the roadmap.
	Opportunities []ScoredOpportunity `json:"opportunities"`

	Roadmap        []RoadmapSlot    `json:"roadmap"`
	CategoryCounts map[Category]int `json:"category_counts"`

	// NoGapsFound is set when the target fully covers all competitor
	// keywords.  A valid terminal state, not an error.
	NoGapsFound bool `json:"no_gaps_found"`

	// EmptyCompetitors lists configured competitors that contributed zero
	// keyword records, sorted.
	EmptyCompetitors []string `json:"empty_competitors,omitempty"`
}

// -----------------------------------------------------------------------
// Service Interface
// -----------------------------------------------------------------------

// Service runs the gap analysis pipeline end to end.
type Service interface {
	// Analyze executes gap computation, scoring, categorization, and
	// roadmap construction for one run.  It fails only on a structurally
	// invalid request; per-competitor problems degrade, never abort.
	Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalysisResult, error)
}

// -----------------------------------------------------------------------
// Service Implementation
// -----------------------------------------------------------------------

type serviceImpl struct {
	gaps     GapOptions
	scoring  ScoringPolicy
	capacity RoadmapCapacity
	logger   logging.Logger
}

// ServiceConfig holds configuration for constructing the analysis service.
// Zero-valued policy fields fall back to the package defaults.
type ServiceConfig struct {
	Gaps     GapOptions
	Scoring  ScoringPolicy
	Capacity RoadmapCapacity
	Logger   logging.Logger
}

// NewService constructs a Service with all required dependencies.
func NewService(cfg ServiceConfig) (Service, error) {
	if cfg.Logger == nil {
		return nil, errors.NewValidation("analysis Service requires Logger")
	}

	// Each gap option defaults on its own, so setting one never silently
	// zeroes the other.  A negative MaxCandidates disables the cap.
	gaps := cfg.Gaps
	defaults := DefaultGapOptions()
	if gaps.StrikingDistance == 0 {
		gaps.StrikingDistance = defaults.StrikingDistance
	}
	if gaps.MaxCandidates == 0 {
		gaps.MaxCandidates = defaults.MaxCandidates
	}
	scoring := cfg.Scoring
	if scoring == (ScoringPolicy{}) {
		scoring = DefaultScoringPolicy()
	}
	if err := scoring.Validate(); err != nil {
		return nil, err
	}
	capacity := cfg.Capacity
	if capacity == (RoadmapCapacity{}) {
		capacity = DefaultRoadmapCapacity()
	}

	return &serviceImpl{
		gaps:     gaps,
		scoring:  scoring,
		capacity: capacity,
		logger:   cfg.Logger,
	}, nil
}

// Analyze executes the full pipeline for one run.
func (s *serviceImpl) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalysisResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	s.logger.Info("starting gap analysis",
		logging.String("run_id", req.RunID.String()),
		logging.String("target", req.Target.Domain),
		logging.Int("competitors", len(req.Competitors)),
	)

	// Empty competitor sets contribute no gaps but do not abort the run.
	competitors := make(map[string]*kw.DomainSet, len(req.Competitors))
	var emptyCompetitors []string
	for domain, set := range req.Competitors {
		if set == nil || set.Len() == 0 {
			emptyCompetitors = append(emptyCompetitors, domain)
			s.logger.Warn("competitor contributed no keyword records",
				logging.String("run_id", req.RunID.String()),
				logging.String("competitor", domain),
				logging.Err(errors.Newf(errors.ErrCodeEmptyCompetitorSet, "competitor %s yielded zero records", domain)),
			)
			continue
		}
		competitors[domain] = set
	}
	sort.Strings(emptyCompetitors)

	candidates := ComputeGaps(req.Target, competitors, s.gaps)

	opportunities := make([]ScoredOpportunity, 0, len(candidates))
	for _, c := range candidates {
		opp := s.scoring.Score(c)
		opp.Category = Categorize(opp)
		opportunities = append(opportunities, opp)
	}
	SortOpportunities(opportunities)

	result := &AnalysisResult{
		RunID:            req.RunID,
		TargetDomain:     req.Target.Domain,
		GeneratedAt:      req.GeneratedAt,
		Opportunities:    opportunities,
		Roadmap:          BuildRoadmap(opportunities, s.capacity),
		CategoryCounts:   CountByCategory(opportunities),
		NoGapsFound:      len(opportunities) == 0,
		EmptyCompetitors: emptyCompetitors,
	}

	s.logger.Info("gap analysis completed",
		logging.String("run_id", req.RunID.String()),
		logging.String("target", req.Target.Domain),
		logging.Int("gap_candidates", len(candidates)),
		logging.Int("opportunities", len(result.Opportunities)),
		logging.Bool("no_gaps_found", result.NoGapsFound),
	)

	return result, nil
}

// validateRequest enforces the fatal configuration checks that must hold
// before any stage executes.
func validateRequest(req *AnalyzeRequest) error {
	if req == nil {
		return errors.New(errors.ErrCodeInvalidRunConfig, "analyze request must not be nil")
	}
	if req.Target == nil || req.Target.Domain == "" {
		return errors.New(errors.ErrCodeInvalidRunConfig, "analyze request requires a target domain set")
	}
	if len(req.Competitors) == 0 {
		return errors.New(errors.ErrCodeInvalidRunConfig, "analyze request requires at least one competitor")
	}
	return nil
}
