// Package apperr defines the error taxonomy shared by the App Store Connect
// client, the pagination aggregator and the MCP tool layer.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind string

const (
	// KindConfiguration represents missing or invalid process setup (env vars, key files).
	KindConfiguration Kind = "configuration"

	// KindValidation represents a malformed or missing caller argument.
	KindValidation Kind = "validation"

	// KindAuthentication represents a failure to produce request credentials.
	KindAuthentication Kind = "authentication"

	// KindAPI represents a non-2xx response or transport failure.
	KindAPI Kind = "api"

	// KindPagination represents a failure while aggregating pages.
	KindPagination Kind = "pagination"
)

// Error is a structured error carrying machine-readable details.
type Error struct {
	Kind        Kind
	Message     string
	UserMessage string
	StatusCode  int
	Details     map[string]any
	Err         error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// ToMap renders the error as the JSON object returned to tool callers.
func (e *Error) ToMap() map[string]any {
	out := map[string]any{
		"error":   true,
		"kind":    string(e.Kind),
		"message": e.Message,
	}
	if e.UserMessage != "" {
		out["user_message"] = e.UserMessage
	}
	if e.StatusCode != 0 {
		out["status_code"] = e.StatusCode
	}
	if len(e.Details) > 0 {
		out["details"] = e.Details
	}
	return out
}

// Configuration returns a configuration error.
func Configuration(message string, details map[string]any) *Error {
	return &Error{Kind: KindConfiguration, Message: message, Details: details}
}

// Validation returns a validation error. userMessage may be empty.
func Validation(message, userMessage string, details map[string]any) *Error {
	return &Error{Kind: KindValidation, Message: message, UserMessage: userMessage, Details: details}
}

// Authentication wraps a credential generation failure.
func Authentication(message string, err error) *Error {
	e := &Error{Kind: KindAuthentication, Message: message, Err: err}
	if err != nil {
		e.Details = map[string]any{"error": err.Error()}
	}
	return e
}

// API returns an error for a failed API call.
func API(statusCode int, message string, details map[string]any, err error) *Error {
	return &Error{Kind: KindAPI, StatusCode: statusCode, Message: message, Details: details, Err: err}
}

// Pagination wraps err with the aggregation context at the time of failure.
func Pagination(message string, details map[string]any, err error) *Error {
	return &Error{Kind: KindPagination, Message: message, Details: details, Err: err}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Wrap converts an arbitrary error into an *Error so it can be rendered for callers.
// Errors that already are *Error are returned as-is.
func Wrap(err error, message string, details map[string]any) *Error {
	if e, ok := As(err); ok {
		return e
	}
	return &Error{Kind: KindAPI, Message: fmt.Sprintf("%s: %v", message, err), Details: details, Err: err}
}
