// Package interceptor provides the http.RoundTripper that attaches the bearer
// token to backend requests and recovers from an expired access token by
// refreshing it once and retrying.
package interceptor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"taskflow-console/internal/metrics"
	"taskflow-console/internal/model"
	"taskflow-console/internal/requestid"
)

const refreshKey = "refresh"

// Requests to these paths never carry a bearer token and are never retried.
var bypassPaths = []string{"/auth/login", "/auth/register", "/auth/refresh"}

var ErrBodyNotReplayable = errors.New("request body cannot be replayed after token refresh")

type Session interface {
	GetToken() string
	RefreshToken(ctx context.Context) (model.TokenPair, error)
	Logout()
}

type Transport struct {
	base    http.RoundTripper
	queue   bool
	metrics *metrics.Metrics

	mu      sync.RWMutex
	session Session

	group    singleflight.Group
	inFlight atomic.Bool
}

type Option func(*Transport)

// WithQueue controls what happens to a 401 that arrives while a refresh is
// already running. With queue enabled the request waits for that refresh and is
// retried with its token; disabled, the 401 is returned unchanged.
func WithQueue(enabled bool) Option {
	return func(t *Transport) {
		t.queue = enabled
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Transport) {
		t.metrics = m
	}
}

func New(base http.RoundTripper, opts ...Option) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}

	t := &Transport{base: base, queue: true}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Bind attaches the session. The session's own HTTP client usually goes through
// this transport, hence binding after construction.
func (t *Transport) Bind(session Session) {
	t.mu.Lock()
	t.session = session
	t.mu.Unlock()
}

// InFlight reports whether a refresh request is outstanding.
func (t *Transport) InFlight() bool {
	return t.inFlight.Load()
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	session := t.boundSession()
	if session == nil || isBypassed(req.URL.Path) {
		return t.send(req)
	}

	token := session.GetToken()
	authReq := req
	if token != "" {
		authReq = withBearer(req, token)
	}

	resp, err := t.send(authReq)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	if strings.Contains(req.URL.Path, "/auth/login") {
		return resp, nil
	}

	// The first 401 claims the refresh before any other request can observe it.
	owner := t.inFlight.CompareAndSwap(false, true)
	if !owner && !t.queue {
		slog.Debug("401 during in-flight refresh; not retrying", "path", req.URL.Path)
		return resp, nil
	}

	drain(resp)

	if t.queue {
		// Another request may already have refreshed since this one was sent.
		if current := session.GetToken(); current != "" && current != token {
			if owner {
				t.inFlight.Store(false)
			}
			return t.retry(req, current)
		}
	}

	pair, err := t.refresh(req.Context(), session, token, owner)
	if err != nil {
		return nil, err
	}

	return t.retry(req, pair.AccessToken)
}

// refresh runs at most one session refresh at a time; concurrent callers share
// its result. stale is the token the backend rejected. The owner clears the
// in-flight flag once the refresh has finished.
func (t *Transport) refresh(ctx context.Context, session Session, stale string, owner bool) (model.TokenPair, error) {
	ch := t.group.DoChan(refreshKey, func() (any, error) {
		if current := session.GetToken(); current != "" && current != stale {
			return model.TokenPair{AccessToken: current}, nil
		}

		pair, err := session.RefreshToken(context.WithoutCancel(ctx))
		if err != nil {
			if session.GetToken() != "" {
				session.Logout()
			}
			return model.TokenPair{}, err
		}
		return pair, nil
	})

	select {
	case res := <-ch:
		if owner {
			t.inFlight.Store(false)
		}
		if res.Err != nil {
			return model.TokenPair{}, res.Err
		}
		return res.Val.(model.TokenPair), nil
	case <-ctx.Done():
		if owner {
			go func() {
				<-ch
				t.inFlight.Store(false)
			}()
		}
		return model.TokenPair{}, ctx.Err()
	}
}

func (t *Transport) retry(req *http.Request, token string) (*http.Response, error) {
	retried := withBearer(req, token)
	if req.Body != nil && req.Body != http.NoBody {
		if req.GetBody == nil {
			return nil, ErrBodyNotReplayable
		}
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("replay request body: %w", err)
		}
		retried.Body = body
	}

	return t.send(retried)
}

func (t *Transport) send(req *http.Request) (*http.Response, error) {
	started := time.Now()
	resp, err := t.base.RoundTrip(req)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	t.metrics.Upstream(status)

	attrs := []any{
		"method", req.Method,
		"path", req.URL.Path,
		"status", status,
		"duration_ms", time.Since(started).Milliseconds(),
	}
	if id := req.Header.Get(requestid.Header); id != "" {
		attrs = append(attrs, "request_id", id)
	}
	if err != nil {
		slog.Warn("upstream request failed", append(attrs, "error", err)...)
	} else {
		slog.Debug("upstream", attrs...)
	}

	return resp, err
}

func (t *Transport) boundSession() Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.session
}

func withBearer(req *http.Request, token string) *http.Request {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return clone
}

func isBypassed(path string) bool {
	for _, p := range bypassPaths {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
