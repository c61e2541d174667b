package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoActiveDevice   = errors.New("no active device")
	ErrDeviceNotFound   = errors.New("device not found")
	ErrForbidden        = errors.New("forbidden")
	ErrRateLimited      = errors.New("rate limited")
	ErrBackendNotReady  = errors.New("audio backend not ready")
	ErrActivation       = errors.New("failed to activate audio")
	ErrNetworkError     = errors.New("network error")
	ErrConfigNotFound   = errors.New("config file not found")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// Kind is the handling class of an error.
type Kind int

const (
	KindUnknown Kind = iota
	// KindDevice covers transient device errors. Restarting the local
	// engine and retrying once may fix them.
	KindDevice
	KindAuth
	KindForbidden
	KindRateLimited
	// KindBackend covers local engine construction and activation failures.
	KindBackend
)

func (k Kind) String() string {
	switch k {
	case KindDevice:
		return "device"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindRateLimited:
		return "rate-limited"
	case KindBackend:
		return "backend"
	default:
		return "unknown"
	}
}

// Classify sorts err into a Kind. Wrapped sentinels are checked first,
// then the lowercased message is matched against status codes and the
// phrases the Web API uses.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	switch {
	case errors.Is(err, ErrBackendNotReady), errors.Is(err, ErrActivation):
		return KindBackend
	case errors.Is(err, ErrNoActiveDevice), errors.Is(err, ErrDeviceNotFound):
		return KindDevice
	case errors.Is(err, ErrNotAuthenticated):
		return KindAuth
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case isDeviceMessage(errStr):
		return KindDevice
	case strings.Contains(errStr, "401"):
		return KindAuth
	case strings.Contains(errStr, "403"):
		return KindForbidden
	case strings.Contains(errStr, "429"):
		return KindRateLimited
	}
	return KindUnknown
}

func isDeviceMessage(s string) bool {
	return strings.Contains(s, "404") ||
		strings.Contains(s, "no active device") ||
		strings.Contains(s, "device not found") ||
		strings.Contains(s, "player command failed")
}

// IsRecoverable reports whether restarting the local engine and retrying
// the command once has a reasonable chance of succeeding.
func IsRecoverable(err error) bool {
	return Classify(err) == KindDevice
}

// UserMessage returns the short message shown in the status bar for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, ErrBackendNotReady) {
		return "Audio backend not ready"
	}
	if errors.Is(err, ErrActivation) {
		cause := strings.TrimPrefix(err.Error(), ErrActivation.Error()+": ")
		return "Failed to activate audio: " + cause
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "404"):
		return "No active device found. Start playing on Spotify and try again."
	case strings.Contains(errStr, "403"):
		return "Action forbidden. Check your Spotify Premium status."
	case strings.Contains(errStr, "401"):
		return "Authentication expired. Please restart the app."
	case strings.Contains(errStr, "429"):
		return "Rate limited. Please wait a moment."
	case strings.Contains(strings.ToLower(errStr), "player command failed"):
		return "No active playback. Start playing a song first."
	}
	return "Error: " + errStr
}

// CadenceError wraps an error with a user-friendly suggestion.
type CadenceError struct {
	Err        error
	Suggestion string
}

func (e *CadenceError) Error() string {
	return e.Err.Error()
}

func (e *CadenceError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &CadenceError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var cadenceErr *CadenceError
	if errors.As(err, &cadenceErr) && cadenceErr.Suggestion != "" {
		return cadenceErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	switch Classify(err) {
	case KindAuth:
		return "Run 'cadence auth login' to authenticate with Spotify"
	case KindForbidden:
		return "This feature requires Spotify Premium"
	case KindRateLimited:
		return "Too many requests. Wait a moment and try again"
	case KindBackend:
		return "Check that librespot is installed, or set engine.binary in your config"
	case KindDevice:
		if errors.Is(err, ErrDeviceNotFound) || strings.Contains(errStr, "device not found") {
			return "Run 'cadence devices' to see available devices"
		}
		return "Open Spotify on a device and start playing, or run 'cadence transfer <device>'"
	}

	if strings.Contains(errStr, "not authenticated") || strings.Contains(errStr, "token expired") {
		return "Run 'cadence auth login' to authenticate with Spotify"
	}

	if errors.Is(err, ErrNetworkError) ||
		strings.Contains(errStr, "network") || strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") {
		return "Check your internet connection and try again"
	}

	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) {
		return "Run 'cadence config path' to see where the config file is read from"
	}

	if strings.Contains(errStr, "500") || strings.Contains(errStr, "server error") {
		return "Spotify is having issues. Try again in a moment"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}
