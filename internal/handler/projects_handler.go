package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"taskflow-console/internal/middleware"
	"taskflow-console/internal/model"
)

type projectLister interface {
	List(ctx context.Context) ([]model.Project, error)
}

type sessionView interface {
	IsAuthenticated() bool
	Identity() model.Identity
}

type ProjectsHandler struct {
	projects projectLister
	session  sessionView
	pages    *Pages
}

func NewProjectsHandler(projects projectLister, session sessionView, pages *Pages) *ProjectsHandler {
	return &ProjectsHandler{projects: projects, session: session, pages: pages}
}

func (h *ProjectsHandler) Page(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List(r.Context())
	if err != nil && h.sessionEnded(err) {
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}

	data := page{
		Title:         "Projects",
		Authenticated: true,
		Identity:      h.session.Identity(),
		Projects:      projects,
	}
	status := http.StatusOK
	if err != nil {
		slog.Error("failed to load projects", "error", err)
		data.Error = "Projects could not be loaded. Try again later."
		status = statusFor(err, http.StatusBadGateway)
	}

	h.pages.render(w, status, pageProjects, data)
}

// List is the JSON form of Page.
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.session.IsAuthenticated() {
		writeError(w, model.ErrUnauthorized)
		return
	}

	projects, err := h.projects.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, projects)
}

// sessionEnded reports whether a failed call also ended the session, which
// happens when the token could not be refreshed.
func (h *ProjectsHandler) sessionEnded(err error) bool {
	return errors.Is(err, model.ErrNoRefreshToken) || !h.session.IsAuthenticated()
}
