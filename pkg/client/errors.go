package client

import (
	"errors"
	"net/http"
)

// Sentinels wrapped into the errors returned by Client methods.
var (
	ErrRetryExhausted   = errors.New("retry attempts exhausted")
	ErrContextCancelled = errors.New("context cancelled")

	// ErrRateLimited means the local quota tracker refused to send the request.
	ErrRateLimited = errors.New("request blocked: App Store Connect quota critical")

	// ErrForeignHost is returned when a pagination link points away from the API host.
	ErrForeignHost = errors.New("url host does not match API base url")
)

// ErrorClass groups request failures for retry decisions and metrics.
type ErrorClass string

const (
	ErrorClassClient    ErrorClass = "client"     // 4xx other than 429
	ErrorClassServer    ErrorClass = "server"     // 5xx
	ErrorClassRateLimit ErrorClass = "rate_limit" // 429
	ErrorClassNetwork   ErrorClass = "network"    // transport failure or timeout
)

// classifyStatus maps a non-2xx status to its ErrorClass.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// retryRejectedOnly repeats only 429s, which App Store Connect answers before
// acting on the request. Used for methods that are not idempotent.
func retryRejectedOnly(errorClass ErrorClass) bool {
	return errorClass == ErrorClassRateLimit
}

// shouldRetry reports whether failures of this class are worth repeating.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		return false
	}
}
