package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches the outer code", func(t *testing.T) {
		err := New(CodeInsufficientBalance, "need 10, have 2")
		assert.True(t, HasCode(err, CodeInsufficientBalance))
		assert.False(t, HasCode(err, CodeQuotaExhausted))
	})

	t.Run("matches a wrapped code", func(t *testing.T) {
		inner := New(CodeConcurrentModification, "stale version")
		outer := Wrap(inner, CodeInternal, "allocation failed")
		assert.True(t, HasCode(outer, CodeConcurrentModification))
		assert.True(t, HasCode(outer, CodeInternal))
	})

	t.Run("false for plain errors", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})

	t.Run("survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("draw round: %w", New(CodeRoundFrozen, "frozen"))
		assert.True(t, HasCode(err, CodeRoundFrozen))
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(New(CodeNotFound, "round not found")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("uncoded")))

	outer := Wrap(New(CodeConflict, "inner"), CodeValidation, "outer")
	assert.Equal(t, CodeValidation, CodeOf(outer), "outermost code wins")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("row not found")
	err := Wrap(cause, CodeNotFound, "round lookup")

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "not_found")
	assert.Contains(t, err.Error(), "row not found")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(CodeConcurrentModification, "version moved")))
	assert.True(t, IsRetryable(New(CodeEntropyUnavailable, "entropy source failed")))
	assert.False(t, IsRetryable(New(CodeInsufficientBalance, "broke")))
	assert.False(t, IsRetryable(errors.New("uncoded")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:             http.StatusBadRequest,
		CodeNotFound:               http.StatusNotFound,
		CodeUnauthorized:           http.StatusUnauthorized,
		CodeForbidden:              http.StatusForbidden,
		CodeConflict:               http.StatusConflict,
		CodeConcurrentModification: http.StatusConflict,
		CodeRoundFrozen:            http.StatusUnprocessableEntity,
		CodeCapacityExceeded:       http.StatusUnprocessableEntity,
		CodeEntropyUnavailable:     http.StatusServiceUnavailable,
		CodeInternal:               http.StatusInternalServerError,
		Code("unknown_code"):       http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
