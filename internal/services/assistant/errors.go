// File: internal/services/assistant/errors.go
package assistant

import (
	"errors"
	"fmt"
	"time"
)

type ErrorType string

const (
	ErrTypeConfig   ErrorType = "CONFIG"
	ErrTypeTimeout  ErrorType = "TIMEOUT"
	ErrTypeProvider ErrorType = "PROVIDER"
	ErrTypeStream   ErrorType = "STREAM"
	ErrTypeQuery    ErrorType = "QUERY"
)

// AssistantError is the typed failure value for gateway operations; a caller
// distinguishes it from a valid stream by type, never by sentinel content.
type AssistantError struct {
	Type      ErrorType
	Operation string
	Message   string
	Attempts  int
	Cause     error
}

func (e *AssistantError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("assistant %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("assistant %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *AssistantError) Unwrap() error { return e.Cause }

func NewConfigError(msg string) *AssistantError {
	return &AssistantError{Type: ErrTypeConfig, Operation: "config", Message: msg}
}

func NewProviderError(operation, msg string, cause error) *AssistantError {
	return &AssistantError{Type: ErrTypeProvider, Operation: operation, Message: msg, Cause: cause}
}

func NewTimeoutError(timeout time.Duration, cause error) *AssistantError {
	return &AssistantError{
		Type:      ErrTypeTimeout,
		Operation: "query",
		Message:   fmt.Sprintf("query timed out after %s", timeout),
		Cause:     cause,
	}
}

func NewStreamError(msg string, cause error) *AssistantError {
	return &AssistantError{Type: ErrTypeStream, Operation: "stream", Message: msg, Cause: cause}
}

// IsTimeout reports whether err is a timeout-classified assistant error.
func IsTimeout(err error) bool {
	var ae *AssistantError
	return errors.As(err, &ae) && ae.Type == ErrTypeTimeout
}
