package repository

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrDestinationNotFound = errors.New("destination account not found")
	ErrLoanNotFound        = errors.New("loan application not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrPlanNotFound        = errors.New("budget plan not found")
	ErrGoalNotFound        = errors.New("savings goal not found")
	ErrUserExists          = errors.New("user with this name or email already exists")

	// ErrConflict marks a transaction that lost to a concurrent one and is
	// safe for the caller to retry.
	ErrConflict = errors.New("concurrent modification, retry the request")
)

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation, optionally on a specific constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != pgerrcode.UniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// mapTxError converts retryable Postgres failures into ErrConflict so the
// boundary layer can distinguish them from business-rule rejections.
func mapTxError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
			return ErrConflict
		}
	}
	return err
}
