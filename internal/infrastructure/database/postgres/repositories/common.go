// Package repositories implements the SQL-backed domain repositories.
package repositories

import (
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rankscope/rankscope/pkg/errors"
	"github.com/rankscope/rankscope/pkg/types/common"
)

// uniqueViolation is the PostgreSQL error code for duplicate keys.
const uniqueViolation = "23505"

// mapDBError translates low-level pgx failures into app error codes so
// callers never inspect driver errors.
func mapDBError(err error, notFoundCode errors.ErrorCode, resource, id string) error {
	if err == nil {
		return nil
	}
	if err == pgx.ErrNoRows {
		return errors.Newf(notFoundCode, "%s %s not found", resource, id)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return errors.Wrapf(err, errors.ErrCodeConflict, "%s %s already exists", resource, id)
	}
	return errors.Wrapf(err, errors.ErrCodeDatabaseError, "%s query failed", resource)
}

// normalizePagination fills defaults so repositories never divide by zero.
func normalizePagination(p common.Pagination) common.Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	return p
}
