package errors

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapDBErrorNil(t *testing.T) {
	assert.Nil(t, MapDBError(nil))
}

func TestMapDBErrorContext(t *testing.T) {
	assert.True(t, IsTimeout(MapDBError(context.DeadlineExceeded)))
	assert.True(t, IsCanceled(MapDBError(context.Canceled)))
}

func TestMapDBErrorNoRows(t *testing.T) {
	assert.True(t, IsNotFound(MapDBError(pgx.ErrNoRows)))
	assert.True(t, IsNotFound(MapDBError(sql.ErrNoRows)))
}

func TestMapDBErrorUniqueViolation(t *testing.T) {
	t.Run("field from detail", func(t *testing.T) {
		pgErr := &pgconn.PgError{
			Code:   pgerrcode.UniqueViolation,
			Detail: "Key (email)=(a@b.c) already exists.",
		}
		err := MapDBError(pgErr)
		assert.True(t, IsConflict(err))
		assert.Equal(t, "email", GetField(err))
	})

	t.Run("field from constraint name", func(t *testing.T) {
		pgErr := &pgconn.PgError{
			Code:           pgerrcode.UniqueViolation,
			ConstraintName: "jobs_job_key_key",
		}
		err := MapDBError(pgErr)
		assert.True(t, IsConflict(err))
		// four-part constraint names are ambiguous, no field inferred
		assert.Equal(t, "", GetField(err))
	})

	t.Run("simple constraint name infers field", func(t *testing.T) {
		pgErr := &pgconn.PgError{
			Code:           pgerrcode.UniqueViolation,
			ConstraintName: "alert_users_email_key",
		}
		// five parts split on underscore, still ambiguous
		err := MapDBError(pgErr)
		assert.True(t, IsConflict(err))
	})
}

func TestMapDBErrorForeignKey(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:   pgerrcode.ForeignKeyViolation,
		Detail: `Key (company_id)=(9) is not present in table "companies".`,
	}
	err := MapDBError(pgErr)
	require.True(t, IsForeignKey(err))
	assert.Contains(t, err.Error(), "Company")
}

func TestMapDBErrorValidationViolations(t *testing.T) {
	notNull := &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "provider"}
	err := MapDBError(notNull)
	assert.True(t, IsValidation(err))
	assert.Equal(t, "provider", GetField(err))

	check := &pgconn.PgError{Code: pgerrcode.CheckViolation}
	assert.True(t, IsValidation(MapDBError(check)))
}

func TestMapDBErrorUnknownPgError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgerrcode.SerializationFailure}
	err := MapDBError(pgErr)
	assert.Equal(t, ErrCodeInternal, GetCode(err))
	assert.True(t, errors.Is(err, pgErr))
}

func TestMapDBErrorPassThrough(t *testing.T) {
	plain := errors.New("not a db error")
	assert.Equal(t, plain, MapDBError(plain))
}
