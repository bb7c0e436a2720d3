package handlers

const (
	ErrInvalidJSON         = "Invalid JSON body"
	ErrInvalidID           = "Invalid id"
	ErrUnauthorized        = "Unauthorized"
	ErrInvalidCSRFToken    = "Invalid CSRF token"
	ErrTooManyRequests     = "Too many requests"
	ErrInternalServerError = "Internal server error"

	// maxBodyBytes caps JSON request bodies.
	maxBodyBytes = 1 << 20
)
