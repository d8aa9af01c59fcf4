package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesChain(t *testing.T) {
	cause := errors.New("row missing")
	err := Wrap(cause, CodeNotFound, "unit lookup failed")

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.True(t, HasCode(err, CodeNotFound))
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestWrapNilIsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestIsCoded(t *testing.T) {
	t.Run("plain errors are uncoded", func(t *testing.T) {
		assert.False(t, IsCoded(errors.New("boom")))
		assert.False(t, IsCoded(fmt.Errorf("wrapped: %w", errors.New("boom"))))
	})

	t.Run("coded anywhere in the chain counts", func(t *testing.T) {
		inner := New(CodeValidation, "bad input")
		assert.True(t, IsCoded(inner))
		assert.True(t, IsCoded(fmt.Errorf("handling request: %w", inner)))
	})
}

// CodeOf defaults to CodeInternal for uncoded errors so the transport layer
// masks the message. IsCoded exists because that default makes CodeOf
// useless as an "already tagged?" test.
func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestHasCodeWalksNestedCodes(t *testing.T) {
	inner := New(CodeConflict, "state machine rejected")
	outer := Wrap(inner, CodeBadRequest, "decode failed")

	assert.True(t, HasCode(outer, CodeBadRequest))
	assert.True(t, HasCode(outer, CodeConflict))
	assert.False(t, HasCode(outer, CodeNotFound))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidInput:       http.StatusBadRequest,
		CodeValidation:         http.StatusBadRequest,
		CodeBadRequest:         http.StatusBadRequest,
		CodeNotFound:           http.StatusNotFound,
		CodeConflict:           http.StatusConflict,
		CodeInvariantViolation: http.StatusConflict,
		CodeForbidden:          http.StatusForbidden,
		CodeQuotaExceeded:      http.StatusTooManyRequests,
		CodeTimeout:            http.StatusGatewayTimeout,
		CodeUnavailable:        http.StatusServiceUnavailable,
		CodeInternal:           http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
