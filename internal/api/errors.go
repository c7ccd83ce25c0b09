package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrAuthenticationFailed is returned for any rejected login. It deliberately
	// does not say whether the account exists.
	ErrAuthenticationFailed = errors.New("invalid email or password")

	// ErrSessionInvalid is returned when the backend rejects a stored token
	ErrSessionInvalid = errors.New("session token rejected")

	// ErrNotFound matches StatusError values carrying a 404
	ErrNotFound = errors.New("not found")

	// ErrForbidden matches StatusError values carrying a 403
	ErrForbidden = errors.New("forbidden")
)

const defaultSignupMessage = "signup failed"

// TransportError wraps failures to reach the backend at all
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: failed to send request: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// SignupRejectedError carries the backend's reason for refusing a signup
type SignupRejectedError struct {
	StatusCode int
	Message    string
}

func (e *SignupRejectedError) Error() string {
	return e.Message
}

// StatusError is a non-2xx answer from any endpoint without a dedicated error
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("failed to %s (status %d)", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("failed to %s (status %d): %s", e.Op, e.StatusCode, e.Message)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	}
	return false
}

// IsUnauthorized reports whether the backend rejected the bearer token
func IsUnauthorized(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusUnauthorized
	}
	return false
}

// maxPlainMessage caps non-JSON error bodies, in runes
const maxPlainMessage = 200

// readErrorMessage pulls a human readable message out of an error body.
// It understands {"error": ...}, {"detail": ...} and {"message": ...}.
func readErrorMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"error", "detail", "message"} {
			if msg := messageString(payload[key]); msg != "" {
				return msg
			}
		}
		return ""
	}

	msg := strings.TrimSpace(string(body))
	if runes := []rune(msg); len(runes) > maxPlainMessage {
		msg = string(runes[:maxPlainMessage])
	}
	return msg
}

func messageString(v any) string {
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	case []any:
		parts := make([]string, 0, len(value))
		for _, item := range value {
			if s := messageString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}
