package transport

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ledgerline/ynab/internal/ratelimit"
)

// Sentinel errors for infrastructure-level failures. Use errors.Is() to
// check. Rate-limit exhaustion shares its sentinel with the client-side
// limiter (ratelimit.ErrLimited).
var (
	// ErrAuthentication signals an invalid or expired access token.
	ErrAuthentication = errors.New("authentication failed")
	// ErrAuthorization signals insufficient permission for a resource.
	ErrAuthorization = errors.New("access denied")
	// ErrNotFound signals a missing remote resource.
	ErrNotFound = errors.New("resource not found")
	// ErrConflict signals a request conflicting with current remote state.
	ErrConflict = errors.New("conflict with current state")
	// ErrValidation signals a request the API rejected as malformed, or a
	// caller-supplied value failing a precondition.
	ErrValidation = errors.New("validation failed")
	// ErrNetwork signals a transport-level failure: timeout, refused
	// connection, or a malformed response body.
	ErrNetwork = errors.New("network error")
	// ErrServer signals a 5xx response.
	ErrServer = errors.New("server error")
)

// APIError is the structured error body the API returns alongside 4xx/5xx
// responses. It is the domain-level error channel: callers branch on it
// with errors.As, or on the matching sentinel with errors.Is, since
// Unwrap maps the status code back to a sentinel.
type APIError struct {
	ID         string
	Name       string
	Detail     string
	StatusCode int
	RetryAfter time.Duration // set on 429 responses when the API hints
}

func (e *APIError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("ynab api error %d (%s): %s", e.StatusCode, e.Name, e.Detail)
	}
	return fmt.Sprintf("ynab api error %d: %s", e.StatusCode, e.Detail)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusBadRequest:
		return ErrValidation
	case e.StatusCode == http.StatusUnauthorized:
		return ErrAuthentication
	case e.StatusCode == http.StatusForbidden:
		return ErrAuthorization
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return ErrConflict
	case e.StatusCode == http.StatusTooManyRequests:
		return ratelimit.ErrLimited
	case e.StatusCode >= 500:
		return ErrServer
	default:
		return nil
	}
}
