package postgres

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgErrCode extracts the PostgreSQL error code, or "" for non-pg errors.
func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isLockNotAvailable reports a lock_timeout expiry (55P03). The statement left
// no state change and the operation is safe to retry.
func isLockNotAvailable(err error) bool {
	return pgErrCode(err) == pgerrcode.LockNotAvailable
}

// isUniqueViolation reports a unique constraint violation (23505) on the named
// constraint. An empty constraint matches any unique violation.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// isForeignKeyViolation reports a foreign key violation (23503).
func isForeignKeyViolation(err error) bool {
	return pgErrCode(err) == pgerrcode.ForeignKeyViolation
}
