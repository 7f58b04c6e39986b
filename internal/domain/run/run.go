// Package run holds the analysis-run aggregate: one requested execution of
// the gap analysis pipeline, tracked from queueing through completion.
package run

import (
	"context"
	"time"

	"github.com/rankscope/rankscope/pkg/errors"
	"github.com/rankscope/rankscope/pkg/types/common"
)

// Status enumerates the run lifecycle states.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one requested gap analysis execution.
type Run struct {
	ID           common.ID  `json:"id"`
	TargetDomain string     `json:"target_domain"`
	Competitors  []string   `json:"competitors"`
	Status       Status     `json:"status"`
	RequestedAt  time.Time  `json:"requested_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	// Set on completion.
	NoGapsFound      bool   `json:"no_gaps_found"`
	OpportunityCount int    `json:"opportunity_count"`
	ReportObjectKey  string `json:"report_object_key,omitempty"`

	// Set on failure.
	ErrorMessage string `json:"error_message,omitempty"`
}

// New creates a queued run.
func New(targetDomain string, competitors []string, requestedAt time.Time) (*Run, error) {
	if targetDomain == "" {
		return nil, errors.New(errors.ErrCodeInvalidRunConfig, "run requires a target domain")
	}
	if len(competitors) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidRunConfig, "run requires at least one competitor")
	}
	return &Run{
		ID:           common.NewID(),
		TargetDomain: targetDomain,
		Competitors:  competitors,
		Status:       StatusQueued,
		RequestedAt:  requestedAt,
	}, nil
}

// Start marks the run as executing.
func (r *Run) Start(at time.Time) error {
	if r.Status != StatusQueued {
		return errors.Newf(errors.ErrCodeConflict, "cannot start run in status %s", r.Status)
	}
	r.Status = StatusRunning
	r.StartedAt = &at
	return nil
}

// Complete records a successful run.
func (r *Run) Complete(at time.Time, opportunityCount int, noGapsFound bool, reportObjectKey string) error {
	if r.Status != StatusRunning {
		return errors.Newf(errors.ErrCodeConflict, "cannot complete run in status %s", r.Status)
	}
	r.Status = StatusCompleted
	r.CompletedAt = &at
	r.OpportunityCount = opportunityCount
	r.NoGapsFound = noGapsFound
	r.ReportObjectKey = reportObjectKey
	return nil
}

// Fail records a failed run.  Allowed from queued or running so queue-level
// failures are also recorded.
func (r *Run) Fail(at time.Time, message string) error {
	if r.Status == StatusCompleted || r.Status == StatusFailed {
		return errors.Newf(errors.ErrCodeConflict, "cannot fail run in status %s", r.Status)
	}
	r.Status = StatusFailed
	r.CompletedAt = &at
	r.ErrorMessage = message
	return nil
}

// Terminal reports whether the run reached a final state.
func (r *Run) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// Repository persists analysis runs.
type Repository interface {
	// Create stores a new run.
	Create(ctx context.Context, run *Run) error

	// Update persists state changes of an existing run.
	Update(ctx context.Context, run *Run) error

	// GetByID returns a run, or a not-found error.
	GetByID(ctx context.Context, id common.ID) (*Run, error)

	// List returns runs newest first.
	List(ctx context.Context, p common.Pagination) ([]*Run, int64, error)

	// ListByDomain returns runs for one target domain, newest first.
	ListByDomain(ctx context.Context, domain string, p common.Pagination) ([]*Run, int64, error)
}
