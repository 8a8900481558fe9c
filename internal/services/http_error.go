package services

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/flix/internal/shared"
)

// HTTPStatusError reports a non-2xx catalog response that carried no recognised error envelope.
type HTTPStatusError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		return fmt.Sprintf("catalog returned HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("catalog returned HTTP %d: %s", e.StatusCode, msg)
}

// Unwrap maps the status onto the shared sentinel errors so callers can use errors.Is.
func (e *HTTPStatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return shared.ErrInvalidCredentials
	case e.StatusCode == http.StatusTooManyRequests:
		return shared.ErrRateLimited
	case e.StatusCode >= 500:
		return shared.ErrServiceUnavailable
	default:
		return shared.ErrAPIRequest
	}
}
