package domain

import "errors"

var (
	// ErrNoAuthToken is returned when an authentication token is required but not provided.
	ErrNoAuthToken = errors.New("no auth token")
	// ErrUnauthorized is returned when the backend refuses a request for the session's token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrBackendUnavailable is returned when the backend cannot be reached or fails.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// AuthResponse is the backend's answer to a successful login or registration.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// MeResponse is the backend's answer to a token check.
type MeResponse struct {
	User User `json:"user"`
}
