package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies a failed reasoning call.
type ErrorType string

const (
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeRateLimited ErrorType = "rate_limited"
	ErrorTypeEndpoint    ErrorType = "endpoint"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error is a structured reasoning-service error with classification.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ClassifyError categorizes an error from a reasoning call into a
// structured Error. The classification drives the fallback reason recorded
// on the degraded decision.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	lower := strings.ToLower(err.Error())

	switch {
	case strings.Contains(lower, "deadline exceeded") ||
		strings.Contains(lower, "context canceled") ||
		strings.Contains(lower, "timeout"):
		return &Error{Type: ErrorTypeTimeout, Message: "request timed out", Cause: err}

	case strings.Contains(lower, "401") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key") ||
		strings.Contains(lower, "authentication"):
		return &Error{Type: ErrorTypeAuth, Message: "authentication failed", Cause: err}

	case strings.Contains(lower, "429") || strings.Contains(lower, "rate limit"):
		return &Error{Type: ErrorTypeRateLimited, Message: "rate limited", Cause: err}

	case strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "404"):
		return &Error{Type: ErrorTypeEndpoint, Message: "endpoint unreachable", Cause: err}

	case strings.Contains(lower, "500") || strings.Contains(lower, "502") ||
		strings.Contains(lower, "503") || strings.Contains(lower, "504"):
		return &Error{Type: ErrorTypeEndpoint, Message: "server error", Cause: err}
	}

	return &Error{Type: ErrorTypeUnknown, Message: "request failed", Cause: err}
}
