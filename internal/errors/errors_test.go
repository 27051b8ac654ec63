package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Storage(cause, "query users")

	assert.Contains(t, err.Error(), "query users")
	assert.ErrorIs(t, err, cause)
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, ErrCodeValidation, Validation("bad input").Code)

	fieldErr := ValidationField("email", "email is required")
	assert.Equal(t, ErrCodeValidation, fieldErr.Code)
	assert.Equal(t, "email", fieldErr.Field)

	assert.Equal(t, ErrCodeConflict, Conflict("duplicate").Code)
	assert.Equal(t, ErrCodeNotFound, NotFound("missing").Code)
	assert.Equal(t, ErrCodeInternal, Internal("boom").Code)
}

func TestInvalidCredentials_GenericMessage(t *testing.T) {
	// Wrong-password and unknown-email paths must produce the same message,
	// so account existence cannot be probed through login.
	err := InvalidCredentials()
	assert.Equal(t, ErrCodeInvalidCredentials, err.Code)
	assert.Equal(t, "invalid credentials", err.Message)
	assert.NotContains(t, err.Message, "email")
	assert.NotContains(t, err.Message, "password")
}

func TestUnauthenticated(t *testing.T) {
	err := Unauthenticated()
	assert.Equal(t, ErrCodeUnauthenticated, err.Code)
	assert.Equal(t, "authentication required", err.Message)
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsValidation(Validation("x")))
	assert.True(t, IsConflict(Conflict("x")))
	assert.True(t, IsInvalidCredentials(InvalidCredentials()))
	assert.True(t, IsUnauthenticated(Unauthenticated()))
	assert.True(t, IsNotFound(NotFound("x")))
	assert.True(t, IsStorage(Storage(errors.New("x"), "x")))

	assert.False(t, IsValidation(Conflict("x")))
	assert.False(t, IsConflict(nil))

	// Predicates unwrap through fmt.Errorf chains.
	wrapped := fmt.Errorf("handler: %w", Conflict("dup"))
	assert.True(t, IsConflict(wrapped))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeConflict, GetCode(Conflict("x")))
	assert.Equal(t, ErrorCode(""), GetCode(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), GetCode(nil))
}

func TestGetField(t *testing.T) {
	assert.Equal(t, "email", GetField(ValidationField("email", "required")))
	assert.Equal(t, "", GetField(Validation("no field")))
	assert.Equal(t, "", GetField(errors.New("plain")))
}

func TestMapDBError_Nil(t *testing.T) {
	assert.NoError(t, MapDBError(nil))
}

func TestMapDBError_NoRows(t *testing.T) {
	err := MapDBError(fmt.Errorf("find user: %w", pgx.ErrNoRows))
	assert.True(t, IsNotFound(err))
}

func TestMapDBError_ContextErrors(t *testing.T) {
	timeoutErr := MapDBError(context.DeadlineExceeded)
	assert.Equal(t, ErrCodeTimeout, GetCode(timeoutErr))

	canceledErr := MapDBError(context.Canceled)
	assert.Equal(t, ErrCodeCanceled, GetCode(canceledErr))
}

func TestMapDBError_UniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:   pgerrcode.UniqueViolation,
		Detail: "Key (email)=(user@example.com) already exists.",
	}

	err := MapDBError(pgErr)
	require.True(t, IsConflict(err))
	assert.Equal(t, "email", GetField(err))
}

func TestMapDBError_CheckViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:       pgerrcode.CheckViolation,
		ColumnName: "expires_at",
	}

	err := MapDBError(pgErr)
	assert.True(t, IsValidation(err))
	assert.Equal(t, "expires_at", GetField(err))
}

func TestMapDBError_OtherPgError(t *testing.T) {
	pgErr := &pgconn.PgError{Code: pgerrcode.ConnectionFailure}

	err := MapDBError(pgErr)
	assert.True(t, IsStorage(err))
}

func TestMapDBError_PassthroughUnknown(t *testing.T) {
	plain := errors.New("something else")
	assert.Equal(t, plain, MapDBError(plain))
}
