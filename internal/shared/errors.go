package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed     = fmt.Errorf("authentication failed")
	ErrNoRefreshToken = fmt.Errorf("no refresh token available")
	ErrTimeout        = fmt.Errorf("operation timed out")

	// API errors
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")

	// Playback errors surfaced to the user with remediation text
	ErrNoActiveDevice    = fmt.Errorf("no active playback device")
	ErrPremiumRequired   = fmt.Errorf("premium subscription required")
	ErrMissingPermission = fmt.Errorf("missing playback permission")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
