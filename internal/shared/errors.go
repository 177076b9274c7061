package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed     = fmt.Errorf("authentication failed")
	ErrAuthTimeout    = fmt.Errorf("authorization timed out")
	ErrTokenExpired   = fmt.Errorf("access token expired")
	ErrNoRefreshToken = fmt.Errorf("no refresh token available")

	// API and playlist errors
	ErrAPIRequest           = fmt.Errorf("API request failed")
	ErrServiceUnavailable   = fmt.Errorf("service unavailable")
	ErrInaccessiblePlaylist = fmt.Errorf("playlist private or not found")
	ErrRateLimited          = fmt.Errorf("rate limited")
	ErrNetwork              = fmt.Errorf("network request failed")

	// Matching errors (per-track, never fatal to a conversion)
	ErrMatchNotFound = fmt.Errorf("no match found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
