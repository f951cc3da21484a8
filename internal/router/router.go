package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"taskflow-console/internal/config"
	"taskflow-console/internal/handler"
	"taskflow-console/internal/middleware"
)

type Handlers struct {
	Auth     *handler.AuthHandler
	Projects *handler.ProjectsHandler
	NotFound *handler.NotFoundHandler
	Events   http.Handler
	Metrics  http.Handler
}

func New(cfg *config.Config, guards *middleware.Guards, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", h.Metrics)
	r.Handle("/static/*", handler.Static())

	// The websocket route hijacks the connection and stays outside Timeout.
	r.With(middleware.CORS(cfg.CORSOrigins)).Get("/ws", h.Events.ServeHTTP)

	r.Group(func(pages chi.Router) {
		pages.Use(middleware.Timeout(cfg.RequestTimeout))

		pages.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, middleware.ProjectsPath, http.StatusFound)
		})

		pages.Group(func(protected chi.Router) {
			protected.Use(guards.RequireAuth)
			protected.Get(middleware.ProjectsPath, h.Projects.Page)
			protected.Post("/logout", h.Auth.Logout)
		})

		pages.Group(func(guest chi.Router) {
			guest.Use(guards.RequireGuest)
			guest.Get(middleware.LoginPath, h.Auth.LoginForm)
			guest.Post(middleware.LoginPath, h.Auth.Login)
			guest.Get("/register", h.Auth.RegisterForm)
			guest.Post("/register", h.Auth.Register)
		})

		pages.Route("/api", func(api chi.Router) {
			api.Use(middleware.CORS(cfg.CORSOrigins))
			api.Get("/session", h.Auth.Session)
			api.Get("/projects", h.Projects.List)
		})
	})

	r.NotFound(middleware.Timeout(cfg.RequestTimeout)(h.NotFound).ServeHTTP)

	return r
}
