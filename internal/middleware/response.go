package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"taskflow-console/internal/model"
)

// writeFailure answers JSON endpoints with the API envelope and pages with
// plain text.
func writeFailure(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	if !wantsJSON(r) {
		http.Error(w, message, status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   &model.APIError{Code: code, Message: message},
	})
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
