package assistant

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError rejects a request before any upstream call is made.
type ValidationError struct {
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string { return e.Message }

// AuthError reports an inbound bearer token mismatch.
type AuthError struct {
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string { return e.Message }

// NotImplementedError reports an action the proxy knows about but does not
// support. Details carries an informational payload for the caller.
type NotImplementedError struct {
	Message string
	Details any
}

// Error implements the error interface.
func (e *NotImplementedError) Error() string { return e.Message }

// MissingHostError reports a host-discovery response that lacked a host field.
type MissingHostError struct {
	Assistant string
}

// Error implements the error interface.
func (e *MissingHostError) Error() string {
	return fmt.Sprintf("assistant %q: discovery response missing host", e.Assistant)
}

// UpstreamDetails captures what the proxy knows about a failed upstream call.
type UpstreamDetails struct {
	URL  string `json:"url"`
	Body any    `json:"body,omitempty"`
}

// UpstreamError is a terminal non-2xx response from the platform, raised only
// after the dispatcher's retry budget is exhausted.
type UpstreamError struct {
	StatusCode int
	Message    string
	Details    *UpstreamDetails
}

// Error implements the error interface.
func (e *UpstreamError) Error() string { return e.Message }

// Normalized is the uniform error triple rendered at the handler boundary.
type Normalized struct {
	Status  int
	Message string
	Details any
}

// Normalize maps any error raised during action handling to its client-facing
// status, message and optional details. Unrecognized errors default to 500.
func Normalize(err error) Normalized {
	var (
		validation *ValidationError
		auth       *AuthError
		notImpl    *NotImplementedError
		noHost     *MissingHostError
		upstream   *UpstreamError
	)
	switch {
	case errors.As(err, &validation):
		return Normalized{Status: http.StatusBadRequest, Message: validation.Message}
	case errors.As(err, &auth):
		return Normalized{Status: http.StatusUnauthorized, Message: auth.Message}
	case errors.As(err, &notImpl):
		return Normalized{Status: http.StatusNotImplemented, Message: notImpl.Message, Details: notImpl.Details}
	case errors.As(err, &noHost):
		return Normalized{Status: http.StatusInternalServerError, Message: noHost.Error()}
	case errors.As(err, &upstream):
		status := upstream.StatusCode
		if status == 0 {
			status = http.StatusInternalServerError
		}
		var details any
		if upstream.Details != nil {
			details = upstream.Details
		}
		return Normalized{Status: status, Message: upstream.Message, Details: details}
	default:
		return Normalized{Status: http.StatusInternalServerError, Message: err.Error()}
	}
}
