package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorPrefersMessage(t *testing.T) {
	err := NewAppError(ErrInvalidInput, "recipient is required", CodeInvalidInput)
	assert.Equal(t, "recipient is required", err.Error())
}

func TestAppError_ErrorFallsBackToWrapped(t *testing.T) {
	err := NewAppError(ErrNotFound, "", CodeNotFound)
	assert.Equal(t, "resource not found", err.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	err := NewAppError(ErrInvalidInput, "bad", CodeInvalidInput)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestWrap(t *testing.T) {
	base := errors.New("boom")
	wrapped := Wrap(base, "failed to record open")

	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, "failed to record open: boom", wrapped.Error())

	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsNotFound(ErrMessageNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", ErrMessageNotFound)))
	assert.False(t, IsNotFound(ErrInvalidInput))
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"not found", ErrNotFound, CodeNotFound},
		{"message not found", ErrMessageNotFound, CodeNotFound},
		{"duplicate", ErrDuplicateEntry, CodeDuplicateEntry},
		{"invalid input", ErrInvalidInput, CodeInvalidInput},
		{"unauthorized", ErrUnauthorized, CodeUnauthorized},
		{"forbidden", ErrForbidden, CodeForbidden},
		{"unknown", errors.New("boom"), CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, GetErrorCode(tt.err))
		})
	}
}
