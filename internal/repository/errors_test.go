package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	uniqueErr := func(constraint string) error {
		return fmt.Errorf("inserting row: %w", &pgconn.PgError{
			Code:           pgerrcode.UniqueViolation,
			ConstraintName: constraint,
		})
	}

	t.Run("matches the named constraint through wrapping", func(t *testing.T) {
		assert.True(t, isUniqueViolation(uniqueErr("accounts_user_id_key"), "accounts_user_id_key"))
	})

	t.Run("a partial unique index reports its index name", func(t *testing.T) {
		err := uniqueErr("loan_applications_open_per_user")
		assert.True(t, isUniqueViolation(err, "loan_applications_open_per_user"))
		assert.False(t, isUniqueViolation(err, "accounts_user_id_key"))
	})

	t.Run("empty constraint matches any unique violation", func(t *testing.T) {
		assert.True(t, isUniqueViolation(uniqueErr("whatever"), ""))
	})

	t.Run("other error codes and plain errors do not match", func(t *testing.T) {
		notNull := &pgconn.PgError{Code: pgerrcode.NotNullViolation}
		assert.False(t, isUniqueViolation(notNull, ""))
		assert.False(t, isUniqueViolation(errors.New("boom"), "accounts_user_id_key"))
	})
}

func TestMapTxError(t *testing.T) {
	t.Run("serialization failure becomes a retryable conflict", func(t *testing.T) {
		err := mapTxError(&pgconn.PgError{Code: pgerrcode.SerializationFailure})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("deadlock becomes a retryable conflict", func(t *testing.T) {
		err := mapTxError(&pgconn.PgError{Code: pgerrcode.DeadlockDetected})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("anything else passes through unchanged", func(t *testing.T) {
		original := errors.New("connection reset")
		assert.Same(t, original, mapTxError(original))
	})
}
