package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a user, chat or message does not exist.
	ErrNotFound = errors.New("db: not found")

	// ErrAlreadyExists is returned on unique constraint violations, e.g.
	// registering a user name twice.
	ErrAlreadyExists = errors.New("db: already exists")
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
