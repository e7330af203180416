package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnexpectedState is returned when a session holds a flow/step pair the
// engine has no handler for; the engine falls back to the main menu
var ErrUnexpectedState = errors.New("unexpected session state")

// RemoteError is a failed backend call, after retries
type RemoteError struct {
	Op     string // e.g. "authenticate", "get_locations"
	Level  string // hierarchy level for location fetches
	Status int    // 0 when the request never got a response
	Body   string // raw backend payload, for logs only
	Err    error
}

func (e *RemoteError) Error() string {
	op := e.Op
	if e.Level != "" {
		op = fmt.Sprintf("%s(%s)", e.Op, e.Level)
	}
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("backend %s failed with status %d: %v", op, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("backend %s failed with status %d: %s", op, e.Status, e.Body)
	default:
		return fmt.Sprintf("backend %s failed: %v", op, e.Err)
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is worth another attempt:
// transport errors, 5xx and 401
func (e *RemoteError) Retryable() bool {
	if e.Status == 0 {
		return true
	}
	return e.Status >= http.StatusInternalServerError || e.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is a backend 404
func IsNotFound(err error) bool {
	var remoteErr *RemoteError
	return errors.As(err, &remoteErr) && remoteErr.Status == http.StatusNotFound
}

// IsAuthFailure reports whether err is a backend 401 or 403
func IsAuthFailure(err error) bool {
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		return false
	}
	return remoteErr.Status == http.StatusUnauthorized || remoteErr.Status == http.StatusForbidden
}

// ValidationError is malformed user input; the step re-prompts
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
