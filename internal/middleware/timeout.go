package middleware

import (
	"net/http"
	"time"
)

// Timeout bounds page rendering, backend calls included. It buffers the
// response, so it must not wrap the websocket route.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, "Request timed out")
	}
}
