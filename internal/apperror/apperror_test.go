package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"gallery/internal/apperror"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	cases := map[*apperror.AppError]int{
		apperror.NewBadRequestError("bad", nil):   http.StatusBadRequest,
		apperror.NewConflictError("dup", nil):     http.StatusBadRequest,
		apperror.NewUnauthorizedError("who", nil): http.StatusUnauthorized,
		apperror.NewForbiddenError("no", nil):     http.StatusForbidden,
		apperror.NewNotFoundError("gone", nil):    http.StatusNotFound,
		apperror.NewInternalError("boom", nil):    http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, err.StatusCode(), err.Type.String())
	}

	unknown := apperror.New(apperror.ErrorType(42), "", nil)
	assert.Equal(t, http.StatusInternalServerError, unknown.StatusCode())
}

func TestWrappingKeepsType(t *testing.T) {
	cause := errors.New("driver exploded")
	err := fmt.Errorf("loading user: %w", apperror.NewNotFoundError("User not found", cause))

	assert.True(t, apperror.IsNotFound(err))
	assert.False(t, apperror.IsConflict(err))
	assert.Equal(t, apperror.NotFoundError, apperror.TypeOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "loading user: User not found: driver exploded", err.Error())

	assert.Equal(t, apperror.InternalError, apperror.TypeOf(cause))
}
