package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestKindMapping(t *testing.T) {
	tests := []struct {
		err    *Error
		kind   Kind
		status int
		code   codes.Code
	}{
		{BadRequest("bad"), KindBadRequest, http.StatusBadRequest, codes.InvalidArgument},
		{Conflict("dup"), KindConflict, http.StatusConflict, codes.AlreadyExists},
		{NotFound("missing"), KindNotFound, http.StatusNotFound, codes.NotFound},
		{Internal("boom"), KindInternal, http.StatusInternalServerError, codes.Internal},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			require.Equal(t, tt.kind, tt.err.Kind())
			require.Equal(t, tt.status, tt.err.StatusCode())
			require.Equal(t, tt.code, tt.err.GRPCCode())
		})
	}
}

func TestErrorStringIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal("failed to load order", WithCause(cause))

	require.Equal(t, "failed to load order: connection refused", err.Error())
	require.ErrorIs(t, err, cause)
}

func TestWithDetail(t *testing.T) {
	err := BadRequest("invalid field", WithDetail("field", "amount"), WithDetail("min", 0))

	details := err.Details()
	require.Equal(t, "amount", details["field"])
	require.Equal(t, 0, details["min"])
}

func TestFrom(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		require.Nil(t, From(nil))
	})

	t.Run("app error passes through", func(t *testing.T) {
		orig := NotFound("missing")
		require.Same(t, orig, From(orig))
	})

	t.Run("wrapped app error is unwrapped", func(t *testing.T) {
		orig := Conflict("dup")
		wrapped := fmt.Errorf("handler: %w", orig)
		require.Same(t, orig, From(wrapped))
	})

	t.Run("unknown error becomes internal", func(t *testing.T) {
		plain := errors.New("socket closed")
		got := From(plain)
		require.Equal(t, KindInternal, got.Kind())
		require.ErrorIs(t, got, plain)
	})
}

func TestEmptyMessageFallsBackToKind(t *testing.T) {
	err := New(KindNotFound, "")
	require.Equal(t, string(KindNotFound), err.Message())
}
