package apierror

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func response(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestFromResponse(t *testing.T) {
	t.Parallel()

	t.Run("envelope body", func(t *testing.T) {
		err := FromResponse(response(http.StatusConflict, `{"success":false,"error":{"code":"ALREADY_EXISTS","message":"username taken"}}`))
		require.Equal(t, "ALREADY_EXISTS", err.Code)
		require.Equal(t, "username taken", err.Message)
		require.Equal(t, http.StatusConflict, err.HTTPStatus)
	})

	t.Run("flat spring body", func(t *testing.T) {
		err := FromResponse(response(http.StatusBadRequest, `{"status":400,"error":"Bad Request","message":"Email already in use"}`))
		require.Equal(t, "BAD_REQUEST", err.Code)
		require.Equal(t, "Email already in use", err.Message)
		require.Equal(t, "Bad Request", err.Details)
		require.Equal(t, "Email already in use", err.BackendMessage())
	})

	t.Run("flat body without message", func(t *testing.T) {
		err := FromResponse(response(http.StatusBadRequest, `{"status":400,"error":"Bad Request"}`))
		require.Equal(t, "Bad Request", err.Message)
		require.Empty(t, err.BackendMessage())
	})

	t.Run("plain text body", func(t *testing.T) {
		err := FromResponse(response(http.StatusInternalServerError, "boom\n"))
		require.Equal(t, "UPSTREAM_ERROR", err.Code)
		require.Equal(t, "Internal Server Error", err.Message)
		require.Equal(t, "boom", err.Details)
		require.Empty(t, err.BackendMessage())
	})

	t.Run("empty body", func(t *testing.T) {
		err := FromResponse(response(http.StatusUnauthorized, ""))
		require.Equal(t, "UNAUTHORIZED", err.Code)
		require.Equal(t, "Unauthorized", err.Message)
		require.Empty(t, err.Details)
	})
}

func TestStatusOf(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("refresh: %w", New("UNAUTHORIZED", "expired", "", http.StatusUnauthorized))
	require.Equal(t, http.StatusUnauthorized, StatusOf(wrapped))
	require.Zero(t, StatusOf(io.EOF))
}
