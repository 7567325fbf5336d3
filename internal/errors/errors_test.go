package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorError(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := NotFound("job not found")
		assert.Equal(t, "job not found", err.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, ErrCodeInternal, "lookup failed")
		assert.Equal(t, "lookup failed: connection refused", err.Error())
	})
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(cause, ErrCodeConflict, "upsert failed")
	require.NotNil(t, err)
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, cause, err.Unwrap())

	assert.Nil(t, Wrap(nil, ErrCodeConflict, "ignored"))
	assert.Nil(t, Wrapf(nil, ErrCodeConflict, "ignored %d", 1))
}

func TestCodePredicates(t *testing.T) {
	cases := []struct {
		err  error
		pred func(error) bool
	}{
		{NotFound("x"), IsNotFound},
		{Conflict("x"), IsConflict},
		{Validation("x"), IsValidation},
		{ValidationField("email", "x"), IsValidation},
		{Unavailable("x"), IsUnavailable},
		{&AppError{Code: ErrCodeTimeout}, IsTimeout},
		{&AppError{Code: ErrCodeCanceled}, IsCanceled},
	}
	for _, tc := range cases {
		assert.True(t, tc.pred(tc.err), "%v", tc.err)
		assert.False(t, tc.pred(errors.New("plain")), "plain error should not match")
	}
}

func TestPredicatesThroughWrapping(t *testing.T) {
	inner := NotFound("company missing")
	outer := fmt.Errorf("refresh: %w", inner)
	assert.True(t, IsNotFound(outer))
	assert.Equal(t, ErrCodeNotFound, GetCode(outer))
}

func TestGetField(t *testing.T) {
	assert.Equal(t, "email", GetField(ValidationField("email", "bad email")))
	assert.Equal(t, "", GetField(Validation("bad")))
	assert.Equal(t, "", GetField(errors.New("plain")))
}

func TestGetCodeNonAppError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), GetCode(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), GetCode(nil))
}
