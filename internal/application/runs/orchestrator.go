// Package runs coordinates the full analysis lifecycle: run bookkeeping,
// engine execution, report assembly and artifact storage.
package runs

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rankscope/rankscope/internal/application/analysis"
	"github.com/rankscope/rankscope/internal/application/reporting"
	kwdomain "github.com/rankscope/rankscope/internal/domain/keyword"
	"github.com/rankscope/rankscope/internal/domain/run"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
	"github.com/rankscope/rankscope/pkg/types/common"
	kw "github.com/rankscope/rankscope/pkg/types/keyword"
)

// ArtifactStore persists rendered reports; implemented by the object storage
// layer.
type ArtifactStore interface {
	Save(ctx context.Context, targetDomain, runID string, html []byte) (string, error)
}

// Auditor produces an opaque audit blob attached to the report.  Audit
// results never influence scoring.
type Auditor interface {
	Audit(ctx context.Context) (json.RawMessage, error)
}

// Exporter writes report data into secondary formats (CSV and the like)
// alongside the rendered report.
type Exporter interface {
	Export(data *reporting.ReportData) ([]string, error)
}

// OrchestratorConfig holds the orchestrator collaborators.  The auditors,
// the exporter and the artifact store are optional; without them the run
// still completes with a report a caller can render elsewhere.
type OrchestratorConfig struct {
	Runs       run.Repository
	Snapshots  kwdomain.SnapshotRepository
	Engine     analysis.Service
	Assembler  reporting.Assembler
	Renderer   reporting.Renderer
	Artifacts  ArtifactStore
	TargetName string

	Performance Auditor
	GEO         Auditor
	Signals     Auditor
	Traffic     Auditor

	Exports Exporter

	Logger logging.Logger
}

// Orchestrator executes analysis runs end to end.
type Orchestrator struct {
	cfg OrchestratorConfig
}

// NewOrchestrator validates the required collaborators.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if cfg.Runs == nil {
		return nil, errors.NewValidation("runs Orchestrator requires run Repository")
	}
	if cfg.Snapshots == nil {
		return nil, errors.NewValidation("runs Orchestrator requires SnapshotRepository")
	}
	if cfg.Engine == nil {
		return nil, errors.NewValidation("runs Orchestrator requires analysis Service")
	}
	if cfg.Assembler == nil {
		return nil, errors.NewValidation("runs Orchestrator requires Assembler")
	}
	if cfg.Renderer == nil {
		return nil, errors.NewValidation("runs Orchestrator requires Renderer")
	}
	if cfg.Logger == nil {
		return nil, errors.NewValidation("runs Orchestrator requires Logger")
	}
	return &Orchestrator{cfg: cfg}, nil
}

// Request creates a queued run.  The caller decides how execution happens:
// inline (CLI) or via a worker picking up the published event.
func (o *Orchestrator) Request(ctx context.Context, targetDomain string, competitors []string, now time.Time) (*run.Run, error) {
	r, err := run.New(targetDomain, competitors, now)
	if err != nil {
		return nil, err
	}
	if err := o.cfg.Runs.Create(ctx, r); err != nil {
		return nil, err
	}
	o.cfg.Logger.Info("analysis run queued",
		logging.String("run_id", r.ID.String()),
		logging.String("target", targetDomain),
	)
	return r, nil
}

// Execute drives one queued run to a terminal state.  Engine or storage
// failures mark the run failed and return the underlying error.
func (o *Orchestrator) Execute(ctx context.Context, runID common.ID) (*run.Run, error) {
	r, err := o.cfg.Runs.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	startedAt := time.Now().UTC()
	if err := r.Start(startedAt); err != nil {
		return nil, err
	}
	if err := o.cfg.Runs.Update(ctx, r); err != nil {
		return nil, err
	}

	result, objectKey, execErr := o.execute(ctx, r, startedAt)
	finishedAt := time.Now().UTC()
	if execErr != nil {
		if failErr := r.Fail(finishedAt, execErr.Error()); failErr == nil {
			if updErr := o.cfg.Runs.Update(ctx, r); updErr != nil {
				o.cfg.Logger.Error("failed to persist failed run",
					logging.String("run_id", r.ID.String()),
					logging.Err(updErr),
				)
			}
		}
		o.cfg.Logger.Error("analysis run failed",
			logging.String("run_id", r.ID.String()),
			logging.Err(execErr),
		)
		return r, execErr
	}

	if err := r.Complete(finishedAt, len(result.Opportunities), result.NoGapsFound, objectKey); err != nil {
		return r, err
	}
	if err := o.cfg.Runs.Update(ctx, r); err != nil {
		return r, err
	}

	o.cfg.Logger.Info("analysis run completed",
		logging.String("run_id", r.ID.String()),
		logging.String("target", r.TargetDomain),
		logging.Int("opportunities", len(result.Opportunities)),
		logging.Bool("no_gaps", result.NoGapsFound),
		logging.String("report_object_key", objectKey),
	)
	return r, nil
}

func (o *Orchestrator) execute(ctx context.Context, r *run.Run, generatedAt time.Time) (*analysis.AnalysisResult, string, error) {
	target, competitors, err := o.loadSets(ctx, r)
	if err != nil {
		return nil, "", err
	}

	result, err := o.cfg.Engine.Analyze(ctx, &analysis.AnalyzeRequest{
		RunID:       r.ID,
		GeneratedAt: generatedAt,
		Target:      target,
		Competitors: competitors,
	})
	if err != nil {
		return nil, "", err
	}

	data, err := o.cfg.Assembler.Assemble(ctx, &reporting.AssembleRequest{
		Result:      result,
		TargetName:  o.targetName(r),
		Competitors: r.Competitors,
		Performance: o.audit(ctx, o.cfg.Performance, "performance"),
		GEOFindings: o.audit(ctx, o.cfg.GEO, "geo"),
		Signals:     o.audit(ctx, o.cfg.Signals, "signals"),
		Traffic:     o.audit(ctx, o.cfg.Traffic, "traffic"),
	})
	if err != nil {
		return nil, "", err
	}

	if o.cfg.Exports != nil {
		paths, err := o.cfg.Exports.Export(data)
		if err != nil {
			o.cfg.Logger.Warn("export failed, report continues without it",
				logging.String("run_id", r.ID.String()),
				logging.Err(err),
			)
		} else {
			o.cfg.Logger.Info("report exported",
				logging.String("run_id", r.ID.String()),
				logging.Int("files", len(paths)),
			)
		}
	}

	objectKey := ""
	if o.cfg.Artifacts != nil {
		var buf strings.Builder
		if err := o.cfg.Renderer.RenderHTML(ctx, data, &buf); err != nil {
			return nil, "", err
		}
		objectKey, err = o.cfg.Artifacts.Save(ctx, r.TargetDomain, r.ID.String(), []byte(buf.String()))
		if err != nil {
			return nil, "", err
		}
	}
	return result, objectKey, nil
}

// loadSets materializes the latest snapshot of every domain in the run.
// A competitor without a snapshot participates as an empty set so the engine
// records it as an empty competitor rather than failing the run.
func (o *Orchestrator) loadSets(ctx context.Context, r *run.Run) (*kw.DomainSet, map[string]*kw.DomainSet, error) {
	targetSnap, err := o.cfg.Snapshots.GetLatest(ctx, r.TargetDomain)
	if err != nil {
		return nil, nil, errors.Wrapf(err, errors.ErrCodeInvalidRunConfig,
			"no keyword snapshot for target %s", r.TargetDomain)
	}

	competitors := make(map[string]*kw.DomainSet, len(r.Competitors))
	for _, domain := range r.Competitors {
		snap, err := o.cfg.Snapshots.GetLatest(ctx, domain)
		if err != nil {
			if errors.IsNotFound(err) {
				o.cfg.Logger.Warn("competitor snapshot missing",
					logging.String("run_id", r.ID.String()),
					logging.String("domain", domain),
				)
				competitors[domain] = kw.NewDomainSet(domain)
				continue
			}
			return nil, nil, err
		}
		competitors[domain] = snap.DomainSet()
	}
	return targetSnap.DomainSet(), competitors, nil
}

func (o *Orchestrator) audit(ctx context.Context, auditor Auditor, name string) json.RawMessage {
	if auditor == nil {
		return nil
	}
	blob, err := auditor.Audit(ctx)
	if err != nil {
		o.cfg.Logger.Warn("audit failed, report continues without it",
			logging.String("audit", name),
			logging.Err(err),
		)
		return nil
	}
	return blob
}

func (o *Orchestrator) targetName(r *run.Run) string {
	if o.cfg.TargetName != "" {
		return o.cfg.TargetName
	}
	return r.TargetDomain
}
