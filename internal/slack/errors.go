package slack

import "fmt"

// AuthError means the credential was rejected at the validation step.
// It aborts an export before any row is produced.
type AuthError struct {
	Code string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("slack: authentication failed: %s", e.Code)
}

// APIError is a failure the API reported inside a 200 response body for a
// required call.
type APIError struct {
	Endpoint string
	Code     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack: %s failed: %s", e.Endpoint, e.Code)
}

// RateLimitError means the retry budget ran out while the API kept rate
// limiting us. Distinct from APIError so callers can advise trying later.
type RateLimitError struct {
	Endpoint string
	Attempts int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("slack: %s failed after %d attempts (rate limited)", e.Endpoint, e.Attempts)
}

// TransportError wraps a network-level failure
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("slack: %s request failed: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
