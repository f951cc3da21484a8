package middleware

import "net/http"

const (
	LoginPath    = "/login"
	ProjectsPath = "/projects"
)

type authState interface {
	IsAuthenticated() bool
}

// Guards gate console routes on the stored session. Both read the session on
// every request; nothing is cached between requests.
type Guards struct {
	state authState
}

func NewGuards(state authState) *Guards {
	return &Guards{state: state}
}

// CanActivateAuth reports whether a protected route may render.
func CanActivateAuth(state authState) bool {
	return state.IsAuthenticated()
}

// CanActivateGuest reports whether a guest-only route (login, register) may
// render.
func CanActivateGuest(state authState) bool {
	return !state.IsAuthenticated()
}

func (g *Guards) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !CanActivateAuth(g.state) {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (g *Guards) RequireGuest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !CanActivateGuest(g.state) {
			http.Redirect(w, r, ProjectsPath, http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}
