package jira

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorType represents the class of a Jira API failure
type ErrorType int

const (
	// ErrorTypeRateLimit indicates HTTP 429
	ErrorTypeRateLimit ErrorType = iota
	// ErrorTypeAuthentication indicates HTTP 401
	ErrorTypeAuthentication
	// ErrorTypePermission indicates HTTP 403
	ErrorTypePermission
	// ErrorTypeNotFound indicates HTTP 404
	ErrorTypeNotFound
	// ErrorTypeBadRequest indicates HTTP 400, usually malformed JQL
	ErrorTypeBadRequest
	// ErrorTypeConflict indicates HTTP 409
	ErrorTypeConflict
	// ErrorTypeValidation indicates HTTP 422
	ErrorTypeValidation
	// ErrorTypeServerError indicates HTTP 5xx
	ErrorTypeServerError
	// ErrorTypeNetwork indicates a transport-level failure with no response
	ErrorTypeNetwork
	// ErrorTypeUnknown indicates any other status
	ErrorTypeUnknown
)

// String returns the string representation of the error type
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeRateLimit:
		return "RateLimit"
	case ErrorTypeAuthentication:
		return "Authentication"
	case ErrorTypePermission:
		return "Permission"
	case ErrorTypeNotFound:
		return "NotFound"
	case ErrorTypeBadRequest:
		return "BadRequest"
	case ErrorTypeConflict:
		return "Conflict"
	case ErrorTypeValidation:
		return "Validation"
	case ErrorTypeServerError:
		return "ServerError"
	case ErrorTypeNetwork:
		return "Network"
	default:
		return "Unknown"
	}
}

// APIError represents a failed Jira API call
type APIError struct {
	Type        ErrorType
	StatusCode  int
	Message     string
	Body        string
	RetryAfter  time.Duration
	OriginalErr error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("Jira API error [%s]: %s (original: %v)", e.Type, e.Message, e.OriginalErr)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("Jira API error [%s %d]: %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("Jira API error [%s]: %s", e.Type, e.Message)
}

// Unwrap returns the original error
func (e *APIError) Unwrap() error {
	return e.OriginalErr
}

// RateLimitDelay reports the provider-requested delay for rate-limited calls
func (e *APIError) RateLimitDelay() (time.Duration, bool) {
	if e.Type != ErrorTypeRateLimit {
		return 0, false
	}
	return e.RetryAfter, true
}

// Retryable reports whether the bounded retry loop may attempt the call again.
// Authentication and permission failures will not recover on their own.
func (e *APIError) Retryable() bool {
	return !e.IsCritical()
}

// IsCritical returns true for failures that should stop the whole run
func (e *APIError) IsCritical() bool {
	return e.Type == ErrorTypeAuthentication || e.Type == ErrorTypePermission
}

// IsRateLimitError checks if the error is a rate limit error
func IsRateLimitError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Type == ErrorTypeRateLimit
	}
	return false
}

// IsCriticalError checks if the error is an authentication or permission error
func IsCriticalError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsCritical()
	}
	return false
}

// classifyStatus maps an HTTP status code to an ErrorType
func classifyStatus(status int) ErrorType {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case status == http.StatusUnauthorized:
		return ErrorTypeAuthentication
	case status == http.StatusForbidden:
		return ErrorTypePermission
	case status == http.StatusNotFound:
		return ErrorTypeNotFound
	case status == http.StatusBadRequest:
		return ErrorTypeBadRequest
	case status == http.StatusConflict:
		return ErrorTypeConflict
	case status == http.StatusUnprocessableEntity:
		return ErrorTypeValidation
	case status >= 500 && status < 600:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
}

// newResponseError builds an APIError from a non-success response.
// defaultRetryAfter is used when a 429 carries no usable Retry-After header.
func newResponseError(resp *http.Response, body []byte, operation string, defaultRetryAfter time.Duration) *APIError {
	apiErr := &APIError{
		Type:       classifyStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("%s: %s", operation, parseErrorMessage(body)),
		Body:       string(body),
	}
	if apiErr.Type == ErrorTypeRateLimit {
		apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), defaultRetryAfter)
	}
	return apiErr
}

// parseErrorMessage extracts the human readable part of a Jira error body
func parseErrorMessage(body []byte) string {
	var payload struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if len(payload.ErrorMessages) > 0 && payload.ErrorMessages[0] != "" {
			return payload.ErrorMessages[0]
		}
		if len(payload.Errors) > 0 {
			encoded, _ := json.Marshal(payload.Errors)
			return string(encoded)
		}
		return "Unknown error"
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return "Unknown error"
}

// parseRetryAfter accepts either delta-seconds or an HTTP date
func parseRetryAfter(value string, fallback time.Duration) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d.Round(time.Second)
		}
		return 0
	}
	return fallback
}
