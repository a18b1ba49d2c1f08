package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedError(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", Clone(ErrNotFound, "Student not found"))

	appErr := FromError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "Student not found", appErr.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	cause := errors.New("boom")

	appErr := FromError(cause)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.ErrorIs(t, appErr, cause)
	assert.Nil(t, FromError(nil))
}

func TestWithDetailsDoesNotMutateBase(t *testing.T) {
	detailed := WithDetails(ErrValidation, map[string]string{"email": "email must be a valid email address"})

	assert.Len(t, detailed.Details, 1)
	assert.Nil(t, ErrValidation.Details)
	assert.Equal(t, ErrValidation.Code, detailed.Code)
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("update: %w", Clone(ErrEmailTaken, "Email already in use"))

	assert.ErrorIs(t, err, ErrEmailTaken)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := Internal(cause, "failed to list students")

	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrInternal)
}
