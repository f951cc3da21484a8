//go:build integration

package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func login(t *testing.T, client *http.Client, consoleURL string, password string) *http.Response {
	t.Helper()
	resp, err := client.PostForm(consoleURL+"/login", url.Values{"username": {"alice"}, "password": {password}})
	require.NoError(t, err)
	return resp
}

func TestConsoleSessionLifecycle(t *testing.T) {
	backend, api := newBackend(t)
	console := newConsole(t, testConfig(api.URL))
	client := browser(t)

	// Guests are sent to the login page.
	resp, err := client.Get(console.URL + "/projects")
	require.NoError(t, err)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))
	_ = readBody(t, resp)

	// Wrong password keeps the visitor on the form.
	resp = login(t, client, console.URL, "wrong")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Contains(t, readBody(t, resp), "Invalid username or password")

	resp = login(t, client, console.URL, "secret")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/projects", resp.Header.Get("Location"))
	_ = readBody(t, resp)

	// Guest-only pages now bounce to projects.
	resp, err = client.Get(console.URL + "/login")
	require.NoError(t, err)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/projects", resp.Header.Get("Location"))
	_ = readBody(t, resp)

	resp, err = client.Get(console.URL + "/projects")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	require.Contains(t, body, "TaskFlow")
	require.Contains(t, body, "alice")
	require.Contains(t, body, "ADMIN")

	// An expired access token is refreshed transparently.
	backend.expireAccess()
	resp, err = client.Get(console.URL + "/projects")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, readBody(t, resp), "TaskFlow")
	require.Equal(t, int32(1), backend.refreshCalls.Load())

	resp, err = client.Get(console.URL + "/api/session")
	require.NoError(t, err)
	var session struct {
		Success bool `json:"success"`
		Data    struct {
			Authenticated bool   `json:"authenticated"`
			Username      string `json:"username"`
			Role          string `json:"role"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	_ = resp.Body.Close()
	require.True(t, session.Data.Authenticated)
	require.Equal(t, "alice", session.Data.Username)
	require.Equal(t, "ADMIN", session.Data.Role)

	resp, err = client.Post(console.URL+"/logout", "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))
	_ = readBody(t, resp)

	resp, err = client.Get(console.URL + "/projects")
	require.NoError(t, err)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_ = readBody(t, resp)
}

func TestConsoleRefreshRejectedEndsSession(t *testing.T) {
	backend, api := newBackend(t)
	console := newConsole(t, testConfig(api.URL))
	client := browser(t)

	resp := login(t, client, console.URL, "secret")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_ = readBody(t, resp)

	backend.mu.Lock()
	backend.validAccess = "expired"
	backend.validRefresh = "revoked"
	backend.mu.Unlock()

	resp, err := client.Get(console.URL + "/projects")
	require.NoError(t, err)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))
	_ = readBody(t, resp)

	resp, err = client.Get(console.URL + "/api/session")
	require.NoError(t, err)
	require.Contains(t, readBody(t, resp), `"authenticated":false`)
}

func TestConsoleRegister(t *testing.T) {
	_, api := newBackend(t)
	console := newConsole(t, testConfig(api.URL))
	client := browser(t)

	form := url.Values{"username": {"bob"}, "email": {"bob@example.com"}, "password": {"pw"}}
	resp, err := client.PostForm(console.URL+"/register", form)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := readBody(t, resp)
	require.Contains(t, body, "Registration successful! Redirecting to login...")
	require.Contains(t, body, "url=/login")

	// Registering does not log in.
	resp, err = client.Get(console.URL + "/projects")
	require.NoError(t, err)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	_ = readBody(t, resp)

	form.Set("username", "alice")
	resp, err = client.PostForm(console.URL+"/register", form)
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Contains(t, readBody(t, resp), "Username already exists")
}

func TestConsoleRoutes(t *testing.T) {
	_, api := newBackend(t)
	console := newConsole(t, testConfig(api.URL))
	client := browser(t)

	resp, err := client.Get(console.URL + "/")
	require.NoError(t, err)
	require.Equal(t, "/projects", resp.Header.Get("Location"))
	_ = readBody(t, resp)

	resp, err = client.Get(console.URL + "/does/not/exist")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, readBody(t, resp), "Page not found")

	resp, err = client.Get(console.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, "ok", readBody(t, resp))

	resp, err = client.Get(console.URL + "/metrics")
	require.NoError(t, err)
	require.True(t, strings.Contains(readBody(t, resp), "go_goroutines"))
}
