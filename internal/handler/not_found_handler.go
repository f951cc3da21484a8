package handler

import (
	"net/http"
	"strings"

	"taskflow-console/internal/model"
)

type NotFoundHandler struct {
	session sessionView
	pages   *Pages
}

func NewNotFoundHandler(session sessionView, pages *Pages) *NotFoundHandler {
	return &NotFoundHandler{session: session, pages: pages}
}

func (h *NotFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeError(w, model.ErrNotFound)
		return
	}

	authenticated := h.session.IsAuthenticated()
	data := page{Title: "Not found", Authenticated: authenticated}
	if authenticated {
		data.Identity = h.session.Identity()
	}

	h.pages.render(w, http.StatusNotFound, pageNotFound, data)
}
