package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_MessageFallsBackToCode(t *testing.T) {
	err := New(CodeConflict, "")
	assert.Equal(t, "conflict", err.Error())

	err = New(CodeConflict, "rfc already registered")
	assert.Equal(t, "rfc already registered", err.Error())
}

func TestWrap_PreservesExistingCode(t *testing.T) {
	inner := New(CodeValidation, "postal code must have 5 digits")
	wrapped := Wrap(inner, CodeInternal, "create client")

	require.True(t, HasCode(wrapped, CodeValidation))
	assert.False(t, HasCode(wrapped, CodeInternal))
}

func TestWrap_UnwrapsToOriginal(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	wrapped := Wrap(cause, CodeInternal, "store unavailable")

	require.ErrorIs(t, wrapped, cause)
}

func TestIs_MatchesByCode(t *testing.T) {
	a := New(CodeNotFound, "client not found")
	b := New(CodeNotFound, "different message")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, New(CodeConflict, "")))
}
