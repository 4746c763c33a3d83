package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicate is returned for unique-constraint violations (client or
	// user email). Callers surface it as an "already registered" conflict.
	ErrDuplicate = errors.New("duplicate value")
	// ErrFeaturedLimit is returned when featuring a project would exceed the
	// three landing-page slots or reuse a taken slot.
	ErrFeaturedLimit = errors.New("featured project limit reached")
	// ErrEmptyUpdate is returned for update calls with no columns to set.
	ErrEmptyUpdate = errors.New("no columns to update")
	// ErrUnknownColumn is returned when an update names a column outside the
	// entity's allowlist.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrTokenInvalid is returned when redeeming a reset token that is
	// unknown, already used, or expired.
	ErrTokenInvalid = errors.New("invalid or expired token")
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
