package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskflow-console/internal/event"
	"taskflow-console/internal/metrics"
	"taskflow-console/internal/model"
	"taskflow-console/internal/storage"
)

const (
	AccessTokenKey  = "access_token"
	RefreshTokenKey = "refresh_token"

	LoginPath    = "/login"
	ProjectsPath = "/projects"

	storageTimeout = 5 * time.Second
)

type authAPI interface {
	Post(ctx context.Context, endpoint string, body any, out any) error
}

// AuthService owns the token pair, the authentication status signal and the
// login/register/refresh/logout operations. The store is the source of truth;
// the access token is also cached in memory.
type AuthService struct {
	api     authAPI
	store   storage.Storage
	bus     event.Bus
	metrics *metrics.Metrics
	parser  *jwt.Parser

	mu          sync.RWMutex
	accessToken string
}

func NewAuthService(api authAPI, store storage.Storage, bus event.Bus, m *metrics.Metrics) *AuthService {
	s := &AuthService{
		api:     api,
		store:   store,
		bus:     bus,
		metrics: m,
		parser:  jwt.NewParser(jwt.WithPaddingAllowed()),
	}

	s.publishStatus(s.IsAuthenticated())
	return s
}

func (s *AuthService) SetToken(accessToken string, refreshToken string) error {
	ctx, cancel := storageContext()
	defer cancel()

	s.mu.Lock()
	s.accessToken = accessToken
	s.mu.Unlock()

	if err := s.store.SetItem(ctx, AccessTokenKey, accessToken); err != nil {
		s.dropCache()
		return fmt.Errorf("persist access token: %w", err)
	}
	if err := s.store.SetItem(ctx, RefreshTokenKey, refreshToken); err != nil {
		s.dropCache()
		// An access token without its refresh token must not count as a session.
		if rmErr := s.store.RemoveItem(ctx, AccessTokenKey); rmErr != nil {
			slog.Error("failed to roll back access token", "error", rmErr)
		}
		return fmt.Errorf("persist refresh token: %w", err)
	}

	s.publishStatus(true)
	return nil
}

// GetToken returns the cached access token, falling back to storage. It returns
// "" when no token exists.
func (s *AuthService) GetToken() string {
	s.mu.RLock()
	cached := s.accessToken
	s.mu.RUnlock()

	if cached != "" {
		return cached
	}

	return s.readItem(AccessTokenKey)
}

func (s *AuthService) ClearTokens() {
	ctx, cancel := storageContext()
	defer cancel()

	s.dropCache()

	for _, key := range []string{AccessTokenKey, RefreshTokenKey} {
		if err := s.store.RemoveItem(ctx, key); err != nil {
			slog.Error("failed to remove stored token", "key", key, "error", err)
		}
	}

	s.publishStatus(false)
}

// IsAuthenticated reflects persisted storage only, never the in-memory cache.
func (s *AuthService) IsAuthenticated() bool {
	return s.readItem(AccessTokenKey) != ""
}

// Logout clears the session and sends open pages to the login route.
func (s *AuthService) Logout() {
	s.ClearTokens()
	s.bus.Publish(event.New(event.TypeNavigate, event.NavigatePayload{Path: LoginPath}))
	slog.Info("session cleared")
}

func (s *AuthService) Login(ctx context.Context, credentials model.Credentials) (model.TokenPair, error) {
	var pair model.TokenPair
	if err := s.api.Post(ctx, "/auth/login", credentials, &pair); err != nil {
		s.metrics.Login("failure")
		return model.TokenPair{}, err
	}

	if pair.AccessToken == "" {
		s.metrics.Login("failure")
		return model.TokenPair{}, fmt.Errorf("login response carried no access token: %w", model.ErrUnauthorized)
	}

	if err := s.SetToken(pair.AccessToken, pair.RefreshToken); err != nil {
		s.metrics.Login("failure")
		return model.TokenPair{}, err
	}

	s.metrics.Login("success")
	slog.Info("logged in", "user", s.Username())
	return pair, nil
}

// Register creates an account. It does not log the user in.
func (s *AuthService) Register(ctx context.Context, registration model.Registration) (json.RawMessage, error) {
	var created json.RawMessage
	if err := s.api.Post(ctx, "/auth/register", registration, &created); err != nil {
		return nil, err
	}

	return created, nil
}

// RefreshToken exchanges the stored refresh token for a new pair. Any failure
// ends the session.
func (s *AuthService) RefreshToken(ctx context.Context) (model.TokenPair, error) {
	refreshToken := s.readItem(RefreshTokenKey)
	if refreshToken == "" {
		s.metrics.Refresh("no_token")
		s.Logout()
		return model.TokenPair{}, model.ErrNoRefreshToken
	}

	s.bus.Publish(event.New(event.TypeRefreshStarted, nil))

	var pair model.TokenPair
	err := s.api.Post(ctx, "/auth/refresh", model.RefreshRequest{RefreshToken: refreshToken}, &pair)
	if err == nil && pair.AccessToken == "" {
		err = fmt.Errorf("refresh response carried no access token: %w", model.ErrUnauthorized)
	}
	if err == nil {
		err = s.SetToken(pair.AccessToken, pair.RefreshToken)
	}

	if err != nil {
		s.metrics.Refresh("failure")
		s.bus.Publish(event.New(event.TypeRefreshFailed, nil))
		slog.Warn("token refresh failed", "error", err)
		s.Logout()
		return model.TokenPair{}, err
	}

	s.metrics.Refresh("success")
	s.bus.Publish(event.New(event.TypeRefreshCompleted, nil))
	return pair, nil
}

func (s *AuthService) Username() string {
	if sub, ok := s.decodeClaims()["sub"].(string); ok {
		return sub
	}
	return model.GuestUsername
}

// UserRole reads the "role" claim, falling back to the first entry of "roles".
func (s *AuthService) UserRole() string {
	claims := s.decodeClaims()
	if role, ok := claims["role"].(string); ok {
		return role
	}
	if roles, ok := claims["roles"].([]any); ok && len(roles) > 0 {
		if role, ok := roles[0].(string); ok {
			return role
		}
	}
	return model.UnknownRole
}

func (s *AuthService) Identity() model.Identity {
	return model.Identity{Username: s.Username(), Role: s.UserRole()}
}

func (s *AuthService) Session() model.SessionState {
	identity := s.Identity()
	return model.SessionState{
		Authenticated: s.IsAuthenticated(),
		Username:      identity.Username,
		Role:          identity.Role,
	}
}

// Status delivers the current authentication status, then every change, until
// the returned cancel func is called.
func (s *AuthService) Status() (<-chan bool, func()) {
	events, unsubscribe := s.bus.Subscribe()
	out := make(chan bool, 1)

	go func() {
		defer close(out)
		for e := range events {
			if e.Type != event.TypeAuthStatus {
				continue
			}
			payload, ok := e.Payload.(event.StatusPayload)
			if !ok {
				continue
			}
			// Slow consumers only need the latest value.
			select {
			case out <- payload.Authenticated:
			default:
				select {
				case <-out:
				default:
				}
				out <- payload.Authenticated
			}
		}
	}()

	return out, unsubscribe
}

// decodeClaims never fails; a missing or malformed token yields nil claims.
func (s *AuthService) decodeClaims() jwt.MapClaims {
	token := s.GetToken()
	if token == "" {
		return nil
	}

	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return nil
	}

	payload, err := s.parser.DecodeSegment(parts[1])
	if err != nil {
		return nil
	}

	var claims jwt.MapClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil
	}

	return claims
}

func (s *AuthService) readItem(key string) string {
	ctx, cancel := storageContext()
	defer cancel()

	value, err := s.store.GetItem(ctx, key)
	if err != nil {
		if !errors.Is(err, model.ErrItemNotFound) {
			slog.Error("failed to read stored token", "key", key, "error", err)
		}
		return ""
	}

	return value
}

func (s *AuthService) dropCache() {
	s.mu.Lock()
	s.accessToken = ""
	s.mu.Unlock()
}

func (s *AuthService) publishStatus(authenticated bool) {
	s.bus.Publish(event.New(event.TypeAuthStatus, event.StatusPayload{Authenticated: authenticated}))
}

func storageContext() (context.Context, func()) {
	return context.WithTimeout(context.Background(), storageTimeout)
}
