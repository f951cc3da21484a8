package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"taskflow-console/internal/requestid"
)

func TestLoggingPropagatesRequestID(t *testing.T) {
	t.Parallel()

	var seen string
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = requestid.From(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("keeps the caller's id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/projects", nil)
		req.Header.Set(requestid.Header, "abc-123")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "abc-123", rec.Header().Get(requestid.Header))
		require.Equal(t, "abc-123", seen)
	})

	t.Run("generates one otherwise", func(t *testing.T) {
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/projects", nil))

		require.NotEmpty(t, rec.Header().Get(requestid.Header))
		require.Equal(t, rec.Header().Get(requestid.Header), seen)
	})
}

func TestRecoveryAnswersInternalError(t *testing.T) {
	t.Parallel()

	handler := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), `"INTERNAL_ERROR"`)
}
