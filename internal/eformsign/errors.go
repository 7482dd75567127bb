package eformsign

import (
	"errors"
	"fmt"
)

// ErrUnavailable indicates a transport-level failure reaching the provider.
// Exchanges and calls are never retried; the failure surfaces immediately.
var ErrUnavailable = errors.New("eformsign unreachable")

// AuthError is returned when the provider's token endpoint rejects the
// exchange or responds without the expected credential envelope.
type AuthError struct {
	StatusCode int // zero when the response was 2xx but malformed
	Body       string
	Reason     string
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("eformsign token exchange failed (%d): %s", e.StatusCode, e.Body)
	}
	return "eformsign token exchange failed: " + e.Reason
}

// APIError carries a non-2xx response from a provider resource endpoint.
// The upstream status and raw body are preserved for diagnosability rather
// than masked or retried.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("eformsign API error (%d): %s", e.StatusCode, e.Body)
}
