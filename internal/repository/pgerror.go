package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const (
	constraintUsersEmail      = "users_email_key"
	constraintOneOpenPresensi = "presensi_one_open_per_user"
)

// isUniqueViolation reports whether err is a PostgreSQL unique violation on
// the named constraint or index.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraint
}
