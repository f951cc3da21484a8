package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"taskflow-console/internal/middleware"
	"taskflow-console/internal/model"
	"taskflow-console/internal/util"
	"taskflow-console/pkg/apierror"
)

const (
	maxFormBytes = 64 << 10

	loginFailedMessage      = "Invalid username or password"
	registeredMessage       = "Registration successful! Redirecting to login..."
	registrationFailMessage = "Registration failed"
)

type authenticator interface {
	Login(ctx context.Context, credentials model.Credentials) (model.TokenPair, error)
	Register(ctx context.Context, registration model.Registration) (json.RawMessage, error)
	Logout()
	Session() model.SessionState
}

type AuthHandler struct {
	auth          authenticator
	pages         *Pages
	redirectDelay time.Duration
}

func NewAuthHandler(auth authenticator, pages *Pages, redirectDelay time.Duration) *AuthHandler {
	return &AuthHandler{auth: auth, pages: pages, redirectDelay: redirectDelay}
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, _ *http.Request) {
	h.pages.render(w, http.StatusOK, pageLogin, page{Title: "Login"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.pages.render(w, http.StatusBadRequest, pageLogin, page{Title: "Login", Error: loginFailedMessage})
		return
	}

	credentials := model.Credentials{
		Username: formField(r, "username"),
		Password: r.PostFormValue("password"),
	}
	data := page{Title: "Login", Form: formValues{Username: credentials.Username}}

	if credentials.Username == "" || credentials.Password == "" {
		data.Error = loginFailedMessage
		h.pages.render(w, http.StatusBadRequest, pageLogin, data)
		return
	}

	if _, err := h.auth.Login(r.Context(), credentials); err != nil {
		slog.Warn("login failed", "username", credentials.Username, "error", err)
		data.Error = loginFailedMessage
		h.pages.render(w, http.StatusUnauthorized, pageLogin, data)
		return
	}

	http.Redirect(w, r, middleware.ProjectsPath, http.StatusSeeOther)
}

func (h *AuthHandler) RegisterForm(w http.ResponseWriter, _ *http.Request) {
	h.pages.render(w, http.StatusOK, pageRegister, page{Title: "Register"})
}

// Register creates the account and leaves the visitor logged out; the page
// moves on to the login form after the configured delay.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.pages.render(w, http.StatusBadRequest, pageRegister, page{Title: "Register", Error: registrationFailMessage})
		return
	}

	registration := model.Registration{
		Username:  formField(r, "username"),
		Email:     formField(r, "email"),
		Password:  r.PostFormValue("password"),
		FirstName: formField(r, "firstName"),
		LastName:  formField(r, "lastName"),
	}
	data := page{
		Title: "Register",
		Form: formValues{
			Username:  registration.Username,
			Email:     registration.Email,
			FirstName: registration.FirstName,
			LastName:  registration.LastName,
		},
	}

	if _, err := h.auth.Register(r.Context(), registration); err != nil {
		slog.Warn("registration failed", "username", registration.Username, "error", err)
		data.Error = registrationError(err)
		h.pages.render(w, statusFor(err, http.StatusBadRequest), pageRegister, data)
		return
	}

	slog.Info("account registered", "username", registration.Username)
	h.pages.render(w, http.StatusCreated, pageRegister, page{
		Title:           "Register",
		Message:         registeredMessage,
		RedirectURL:     middleware.LoginPath,
		RedirectSeconds: strconv.FormatFloat(h.redirectDelay.Seconds(), 'f', -1, 64),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout()
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}

// Session reports the current identity as JSON.
func (h *AuthHandler) Session(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, h.auth.Session())
}

func formField(r *http.Request, name string) string {
	return util.CleanField(r.PostFormValue(name), util.MaxFieldRunes)
}

func registrationError(err error) string {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if message := apiErr.BackendMessage(); message != "" {
			return message
		}
	}
	return registrationFailMessage
}

// statusFor maps a backend failure onto the status of the page that reports it.
func statusFor(err error, fallback int) int {
	status := apierror.StatusOf(err)
	switch {
	case status >= 500:
		return http.StatusBadGateway
	case status >= 400:
		return status
	default:
		return fallback
	}
}
