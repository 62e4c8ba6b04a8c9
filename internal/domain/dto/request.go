// Package dto defines Data Transfer Objects for HTTP request and response handling.
//
// DTOs are used to decouple the HTTP layer from the domain model,
// providing validation and serialization for API communication.
package dto

// Cache admin actions accepted by the cache admin endpoint.
const (
	ActionClearAll          = "clear_all"
	ActionClearGitLabAPI    = "clear_gitlab_api"
	ActionClearAPIResponses = "clear_api_responses"
	ActionClearClientCache  = "clear_client_cache"
	ActionGetStats          = "get_stats"
)

// CacheAdminRequest represents the JSON request body for the cache admin endpoint.
//
// @Description Cache administration action
// @Example {"action": "clear_all"}
type CacheAdminRequest struct {
	// Action is one of clear_all, clear_gitlab_api, clear_api_responses,
	// clear_client_cache, get_stats.
	Action string `json:"action" binding:"required" example:"clear_all"`
} // @name CacheAdminRequest

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns the error message for ValidationError.
func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ErrInvalidAction is returned when the cache admin action is unknown.
var ErrInvalidAction = &ValidationError{
	Field:   "action",
	Message: "must be one of clear_all, clear_gitlab_api, clear_api_responses, clear_client_cache, get_stats",
}

// Validate performs custom validation on the request.
func (r *CacheAdminRequest) Validate() error {
	switch r.Action {
	case ActionClearAll, ActionClearGitLabAPI, ActionClearAPIResponses,
		ActionClearClientCache, ActionGetStats:
		return nil
	default:
		return ErrInvalidAction
	}
}

// CacheAdminResponse is the payload returned by the cache admin endpoint.
//
// @Description Result of a cache administration action
type CacheAdminResponse struct {
	Success bool        `json:"success" example:"true"`
	Message string      `json:"message,omitempty" example:"all caches cleared"`
	Stats   interface{} `json:"stats,omitempty" swaggertype:"object"`
} // @name CacheAdminResponse
