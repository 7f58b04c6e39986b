package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rankscope/rankscope/internal/domain/run"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
	"github.com/rankscope/rankscope/pkg/types/common"
)

// RunRepository is the PostgreSQL implementation of run.Repository.
type RunRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewRunRepository constructs a RunRepository.
func NewRunRepository(pool *pgxpool.Pool, log logging.Logger) (*RunRepository, error) {
	if pool == nil {
		return nil, errors.NewValidation("RunRepository requires a connection pool")
	}
	if log == nil {
		return nil, errors.NewValidation("RunRepository requires Logger")
	}
	return &RunRepository{pool: pool, logger: log}, nil
}

const runColumns = `id, target_domain, competitors, status, requested_at, started_at,
	completed_at, no_gaps_found, opportunity_count, report_object_key, error_message`

// Create stores a new run.
func (r *RunRepository) Create(ctx context.Context, rn *run.Run) error {
	if rn == nil {
		return errors.NewValidation("run must not be nil")
	}

	const q = `
		INSERT INTO analysis_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.pool.Exec(ctx, q,
		rn.ID.String(), rn.TargetDomain, rn.Competitors, string(rn.Status),
		rn.RequestedAt, rn.StartedAt, rn.CompletedAt,
		rn.NoGapsFound, rn.OpportunityCount, rn.ReportObjectKey, rn.ErrorMessage)
	if err != nil {
		return mapDBError(err, errors.ErrCodeRunNotFound, "run", rn.ID.String())
	}

	r.logger.Debug("run created",
		logging.String("run_id", rn.ID.String()),
		logging.String("target", rn.TargetDomain),
	)
	return nil
}

// Update persists state changes of an existing run.
func (r *RunRepository) Update(ctx context.Context, rn *run.Run) error {
	if rn == nil {
		return errors.NewValidation("run must not be nil")
	}

	const q = `
		UPDATE analysis_runs
		SET status = $2, started_at = $3, completed_at = $4, no_gaps_found = $5,
		    opportunity_count = $6, report_object_key = $7, error_message = $8
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q,
		rn.ID.String(), string(rn.Status), rn.StartedAt, rn.CompletedAt,
		rn.NoGapsFound, rn.OpportunityCount, rn.ReportObjectKey, rn.ErrorMessage)
	if err != nil {
		return mapDBError(err, errors.ErrCodeRunNotFound, "run", rn.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeRunNotFound, "run %s not found", rn.ID.String())
	}
	return nil
}

// GetByID returns a run.
func (r *RunRepository) GetByID(ctx context.Context, id common.ID) (*run.Run, error) {
	const q = `SELECT ` + runColumns + ` FROM analysis_runs WHERE id = $1`
	row := r.pool.QueryRow(ctx, q, id.String())
	return scanRun(row.Scan)
}

// List returns runs newest first.
func (r *RunRepository) List(ctx context.Context, p common.Pagination) ([]*run.Run, int64, error) {
	return r.list(ctx, p, "")
}

// ListByDomain returns runs for one target domain, newest first.
func (r *RunRepository) ListByDomain(ctx context.Context, domain string, p common.Pagination) ([]*run.Run, int64, error) {
	return r.list(ctx, p, domain)
}

func (r *RunRepository) list(ctx context.Context, p common.Pagination, domain string) ([]*run.Run, int64, error) {
	p = normalizePagination(p)

	countQ := `SELECT COUNT(*) FROM analysis_runs`
	listQ := `SELECT ` + runColumns + ` FROM analysis_runs ORDER BY requested_at DESC LIMIT $1 OFFSET $2`
	args := []any{p.PageSize, p.Offset()}
	countArgs := []any{}
	if domain != "" {
		countQ = `SELECT COUNT(*) FROM analysis_runs WHERE target_domain = $1`
		listQ = `SELECT ` + runColumns + ` FROM analysis_runs WHERE target_domain = $1
			ORDER BY requested_at DESC LIMIT $2 OFFSET $3`
		args = []any{domain, p.PageSize, p.Offset()}
		countArgs = []any{domain}
	}

	var total int64
	if err := r.pool.QueryRow(ctx, countQ, countArgs...).Scan(&total); err != nil {
		return nil, 0, mapDBError(err, errors.ErrCodeRunNotFound, "run", domain)
	}

	rows, err := r.pool.Query(ctx, listQ, args...)
	if err != nil {
		return nil, 0, mapDBError(err, errors.ErrCodeRunNotFound, "run", domain)
	}
	defer rows.Close()

	var runs []*run.Run
	for rows.Next() {
		rn, err := scanRun(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, rn)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapDBError(err, errors.ErrCodeRunNotFound, "run", domain)
	}

	return runs, total, nil
}

func scanRun(scan func(dest ...any) error) (*run.Run, error) {
	var (
		rn     run.Run
		id     string
		status string
	)
	err := scan(&id, &rn.TargetDomain, &rn.Competitors, &status, &rn.RequestedAt,
		&rn.StartedAt, &rn.CompletedAt, &rn.NoGapsFound, &rn.OpportunityCount,
		&rn.ReportObjectKey, &rn.ErrorMessage)
	if err != nil {
		return nil, mapDBError(err, errors.ErrCodeRunNotFound, "run", id)
	}
	rn.ID = common.ID(id)
	rn.Status = run.Status(status)
	return &rn, nil
}
