package repositories

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rankscope/rankscope/internal/domain/keyword"
	"github.com/rankscope/rankscope/internal/infrastructure/monitoring/logging"
	"github.com/rankscope/rankscope/pkg/errors"
	"github.com/rankscope/rankscope/pkg/types/common"
	kw "github.com/rankscope/rankscope/pkg/types/keyword"
)

// SnapshotRepository is the PostgreSQL implementation of
// keyword.SnapshotRepository.  Keyword records are stored as one JSONB
// document per snapshot; snapshots are immutable so there is no update path.
type SnapshotRepository struct {
	pool   *pgxpool.Pool
	logger logging.Logger
}

// NewSnapshotRepository constructs a SnapshotRepository.
func NewSnapshotRepository(pool *pgxpool.Pool, log logging.Logger) (*SnapshotRepository, error) {
	if pool == nil {
		return nil, errors.NewValidation("SnapshotRepository requires a connection pool")
	}
	if log == nil {
		return nil, errors.NewValidation("SnapshotRepository requires Logger")
	}
	return &SnapshotRepository{pool: pool, logger: log}, nil
}

// Save stores a snapshot.  Saving an existing ID is a conflict.
func (r *SnapshotRepository) Save(ctx context.Context, snapshot *keyword.Snapshot) error {
	if snapshot == nil {
		return errors.NewValidation("snapshot must not be nil")
	}

	records, err := json.Marshal(snapshot.Records)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode snapshot records")
	}

	const q = `
		INSERT INTO keyword_snapshots (id, domain, provider, collected_at, dropped_records, records)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = r.pool.Exec(ctx, q,
		snapshot.ID.String(), snapshot.Domain, snapshot.Provider,
		snapshot.CollectedAt, snapshot.DroppedRecords, records)
	if err != nil {
		return mapDBError(err, errors.ErrCodeSnapshotNotFound, "snapshot", snapshot.ID.String())
	}

	r.logger.Debug("snapshot saved",
		logging.String("snapshot_id", snapshot.ID.String()),
		logging.String("domain", snapshot.Domain),
		logging.Int("records", len(snapshot.Records)),
	)
	return nil
}

// GetByID returns the snapshot with the given ID.
func (r *SnapshotRepository) GetByID(ctx context.Context, id common.ID) (*keyword.Snapshot, error) {
	const q = `
		SELECT id, domain, provider, collected_at, dropped_records, records
		FROM keyword_snapshots WHERE id = $1`
	return r.scanSnapshot(ctx, q, id.String())
}

// GetLatest returns the most recently collected snapshot for a domain.
func (r *SnapshotRepository) GetLatest(ctx context.Context, domain string) (*keyword.Snapshot, error) {
	const q = `
		SELECT id, domain, provider, collected_at, dropped_records, records
		FROM keyword_snapshots
		WHERE domain = $1
		ORDER BY collected_at DESC
		LIMIT 1`
	return r.scanSnapshot(ctx, q, domain)
}

// ListByDomain returns snapshots for a domain, newest first.
func (r *SnapshotRepository) ListByDomain(ctx context.Context, domain string, p common.Pagination) ([]*keyword.Snapshot, int64, error) {
	p = normalizePagination(p)

	var total int64
	const countQ = `SELECT COUNT(*) FROM keyword_snapshots WHERE domain = $1`
	if err := r.pool.QueryRow(ctx, countQ, domain).Scan(&total); err != nil {
		return nil, 0, mapDBError(err, errors.ErrCodeSnapshotNotFound, "snapshot", domain)
	}

	const q = `
		SELECT id, domain, provider, collected_at, dropped_records, records
		FROM keyword_snapshots
		WHERE domain = $1
		ORDER BY collected_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, q, domain, p.PageSize, p.Offset())
	if err != nil {
		return nil, 0, mapDBError(err, errors.ErrCodeSnapshotNotFound, "snapshot", domain)
	}
	defer rows.Close()

	var snapshots []*keyword.Snapshot
	for rows.Next() {
		s, err := scanSnapshotRow(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapDBError(err, errors.ErrCodeSnapshotNotFound, "snapshot", domain)
	}

	return snapshots, total, nil
}

// Delete removes a snapshot by ID.
func (r *SnapshotRepository) Delete(ctx context.Context, id common.ID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM keyword_snapshots WHERE id = $1`, id.String())
	if err != nil {
		return mapDBError(err, errors.ErrCodeSnapshotNotFound, "snapshot", id.String())
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeSnapshotNotFound, "snapshot %s not found", id.String())
	}
	return nil
}

func (r *SnapshotRepository) scanSnapshot(ctx context.Context, query string, arg any) (*keyword.Snapshot, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	s, err := scanSnapshotRow(row.Scan)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func scanSnapshotRow(scan func(dest ...any) error) (*keyword.Snapshot, error) {
	var (
		s       keyword.Snapshot
		id      string
		records []byte
	)
	if err := scan(&id, &s.Domain, &s.Provider, &s.CollectedAt, &s.DroppedRecords, &records); err != nil {
		return nil, mapDBError(err, errors.ErrCodeSnapshotNotFound, "snapshot", id)
	}
	s.ID = common.ID(id)

	var recs []kw.Record
	if err := json.Unmarshal(records, &recs); err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodeSnapshotCorrupted, "snapshot %s holds undecodable records", id)
	}
	s.Records = recs
	return &s, nil
}
