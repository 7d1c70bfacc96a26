package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrUnsupported indicates a value or operation is not supported
	ErrUnsupported = errors.New("unsupported")

	// ErrValidation indicates user input failed local validation and was not sent
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotAuthenticated indicates there is no session to authenticate with
	ErrNotAuthenticated = errors.New("not logged in")

	// ErrSessionExpired indicates the session could not be refreshed and was cleared
	ErrSessionExpired = errors.New("session expired")

	// ErrPermission indicates a permission error
	ErrPermission = errors.New("permission denied")

	// ErrFileType indicates a local file does not have the expected content
	ErrFileType = errors.New("unexpected file type")
)
