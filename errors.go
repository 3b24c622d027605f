package ynab

import (
	"github.com/ledgerline/ynab/internal/ratelimit"
	"github.com/ledgerline/ynab/internal/transport"
)

// Sentinel errors re-exported from the internal layers.
// Use errors.Is() to check.
//
// Two error channels exist deliberately. Infrastructure failures (network,
// auth, server trouble) surface as errors wrapping these sentinels at the
// point of the lazy access that triggered the call. Domain-level API
// errors additionally carry the API's structured error body as an
// *APIError, reachable with errors.As; its Unwrap maps the status code
// back to the matching sentinel, so errors.Is keeps working.
var (
	ErrAuthentication = transport.ErrAuthentication
	ErrAuthorization  = transport.ErrAuthorization
	ErrNotFound       = transport.ErrNotFound
	ErrConflict       = transport.ErrConflict
	ErrValidation     = transport.ErrValidation
	ErrNetwork        = transport.ErrNetwork
	ErrServer         = transport.ErrServer
	ErrRateLimited    = ratelimit.ErrLimited
)

// APIError is the structured error value the API returns for domain-level
// failures (4xx with an error body).
type APIError = transport.APIError

// RateLimitError is returned by operations under fail-fast rate limiting.
// It wraps ErrRateLimited and carries the retry-after hint.
type RateLimitError = ratelimit.LimitedError
