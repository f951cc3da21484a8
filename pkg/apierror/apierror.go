package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody caps how much of an error response is read into Details.
const maxErrorBody = 64 << 10

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`

	// reported is set when Message came from the backend body rather than
	// from the status line.
	reported bool
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

// FromResponse builds an APIError from a non-2xx backend response. It understands
// the {"error":{"code","message"}} envelope, flat {"message","error"} bodies and
// plain text. The body is consumed but not closed.
func FromResponse(resp *http.Response) *APIError {
	apiErr := &APIError{
		Code:       CodeForStatus(resp.StatusCode),
		Message:    http.StatusText(resp.StatusCode),
		HTTPStatus: resp.StatusCode,
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(strings.TrimSpace(string(raw))) == 0 {
		return apiErr
	}

	var enveloped struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Details string `json:"details"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &enveloped) == nil && enveloped.Error != nil {
		if enveloped.Error.Code != "" {
			apiErr.Code = enveloped.Error.Code
		}
		if enveloped.Error.Message != "" {
			apiErr.Message = enveloped.Error.Message
			apiErr.reported = true
		}
		apiErr.Details = enveloped.Error.Details
		return apiErr
	}

	var flat struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &flat) == nil && (flat.Message != "" || flat.Error != "") {
		if flat.Message != "" {
			apiErr.Message = flat.Message
			apiErr.Details = flat.Error
			apiErr.reported = true
		} else {
			apiErr.Message = flat.Error
		}
		return apiErr
	}

	apiErr.Details = strings.TrimSpace(string(raw))
	return apiErr
}

// BackendMessage returns the message the backend put in its error body, or ""
// when the body carried none.
func (e *APIError) BackendMessage() string {
	if e == nil || !e.reported {
		return ""
	}
	return e.Message
}

// StatusOf reports the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatus
	}
	return 0
}

func CodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	}

	if status >= 500 {
		return "UPSTREAM_ERROR"
	}
	return "HTTP_ERROR"
}
