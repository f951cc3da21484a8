//go:build integration

package integration

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"taskflow-console/internal/app"
	"taskflow-console/internal/config"
	"taskflow-console/internal/storage"
)

// backend imitates the TaskFlow API: one user, short-lived access tokens that
// can be expired on demand, and a single rotating refresh token.
type backend struct {
	t *testing.T

	mu           sync.Mutex
	validAccess  string
	validRefresh string
	generation   int

	refreshCalls atomic.Int32
}

func newBackend(t *testing.T) (*backend, *httptest.Server) {
	t.Helper()

	b := &backend{t: t}
	server := httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(server.Close)
	return b, server
}

func (b *backend) issue() map[string]string {
	b.generation++
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "alice",
		"roles": []string{"ADMIN"},
		"gen":   b.generation,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("backend-secret"))
	require.NoError(b.t, err)

	b.validAccess = access
	b.validRefresh = "refresh-" + access[len(access)-8:]
	return map[string]string{"access_token": b.validAccess, "refresh_token": b.validRefresh}
}

// expireAccess invalidates the current access token, as its expiry would.
func (b *backend) expireAccess() {
	b.mu.Lock()
	b.validAccess = "expired"
	b.mu.Unlock()
}

func (b *backend) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch r.URL.Path {
	case "/auth/login":
		var creds struct{ Username, Password string }
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Username != "alice" || creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(b.issue())
	case "/auth/register":
		var reg struct{ Username string }
		_ = json.NewDecoder(r.Body).Decode(&reg)
		if reg.Username == "alice" {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message":"Username already exists"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"username":"` + reg.Username + `"}`))
	case "/auth/refresh":
		b.refreshCalls.Add(1)
		var req struct{ RefreshToken string }
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.RefreshToken == "" || req.RefreshToken != b.validRefresh {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid refresh token"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(b.issue())
	case "/projects":
		if r.Header.Get("Authorization") != "Bearer "+b.validAccess {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"1","key":"TF","name":"TaskFlow","description":"Issue tracker","members":[{"username":"alice"}]}]`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func testConfig(apiURL string) *config.Config {
	return &config.Config{
		ServerPort:            "0",
		RequestTimeout:        10 * time.Second,
		APIBaseURL:            apiURL,
		APITimeout:            5 * time.Second,
		StorageDriver:         storage.DriverMemory,
		CORSOrigins:           []string{"http://localhost:8090"},
		RateLimitRPM:          1000,
		AuthRateLimitRPM:      1000,
		RefreshQueue:          true,
		RegisterRedirectDelay: 1500 * time.Millisecond,
	}
}

func newConsole(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()

	application, err := app.New(cfg)
	require.NoError(t, err)

	server := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		server.Close()
		_ = application.Shutdown()
	})
	return server
}

// browser follows nothing on its own so tests can assert each redirect.
func browser(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
