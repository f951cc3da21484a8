package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow-console/internal/requestid"
	"taskflow-console/pkg/apierror"
)

func TestClientForwardsRequests(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/projects":
			assert.Equal(t, "TF", r.URL.Query().Get("key"))
			assert.Equal(t, "req-1", r.Header.Get(requestid.Header))
			_ = json.NewEncoder(w).Encode([]map[string]string{{"key": "TF"}})
		case r.Method == http.MethodPost && r.URL.Path == "/api/projects":
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "yes", r.Header.Get("X-Custom"))
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(body)
		case r.Method == http.MethodPut && r.URL.Path == "/api/projects/1":
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodDelete && r.URL.Path == "/api/projects/1":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("Project deleted"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	client := New(server.URL+"/api/", server.Client())
	ctx := requestid.Into(context.Background(), "req-1")

	var listed []map[string]string
	require.NoError(t, client.Get(ctx, "/projects", url.Values{"key": {"TF"}}, &listed))
	require.Equal(t, "TF", listed[0]["key"])

	var created map[string]string
	require.NoError(t, client.Post(ctx, "/projects", map[string]string{"name": "TaskFlow"}, &created, WithHeader("X-Custom", "yes")))
	require.Equal(t, "TaskFlow", created["name"])

	var updated map[string]string
	require.NoError(t, client.Put(ctx, "/projects/1", map[string]string{"name": "x"}, &updated))
	require.Nil(t, updated)

	require.NoError(t, client.Delete(ctx, "/projects/1", nil))
}

func TestClientReturnsAPIErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, server.Client())
	err := client.Post(context.Background(), "/auth/login", map[string]string{"username": "u"}, nil)

	var apiErr *apierror.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.HTTPStatus)
	require.Equal(t, "Bad credentials", apiErr.Message)
}

type failingTransport struct{ err error }

func (f failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, f.err
}

func TestClientReturnsTransportErrorUntouched(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("refresh rejected")
	client := New("http://backend.invalid", &http.Client{Transport: failingTransport{err: sentinel}})

	err := client.Get(context.Background(), "/projects", nil, nil)
	require.Same(t, sentinel, err)
}
