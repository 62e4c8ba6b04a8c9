package gitlab

import (
	"errors"
	"fmt"
)

// ErrRetriesExhausted wraps the last upstream failure once every configured
// retry has been spent.
var ErrRetriesExhausted = errors.New("retries exhausted")

// APIError is a non-2xx answer from the Git hosting API.
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("gitlab: %s returned status %d", e.Endpoint, e.StatusCode)
}

// Retryable reports whether the error is a server-side failure worth
// retrying. Client errors (4xx) are not: the request itself is at fault and
// repeating it cannot succeed.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500
}

// IsRetryable reports whether err is a transient upstream failure: either a
// 5xx APIError or a transport-level error that never produced a response.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	// No HTTP status at all means the request never completed; treat as
	// transient.
	return err != nil
}
