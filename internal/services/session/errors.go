// File: internal/services/session/errors.go
package session

import "fmt"

type ErrorType string

const (
	ErrTypeValidation  ErrorType = "VALIDATION"
	ErrTypeQuery       ErrorType = "QUERY"
	ErrTypePersistence ErrorType = "PERSISTENCE"
	ErrTypeNotFound    ErrorType = "NOT_FOUND"
)

type SessionError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *SessionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("session %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("session %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *SessionError) Unwrap() error { return e.Cause }

func NewValidationError(operation, msg string) *SessionError {
	return &SessionError{Type: ErrTypeValidation, Operation: operation, Message: msg}
}

func NewQueryError(operation, msg string, cause error) *SessionError {
	return &SessionError{Type: ErrTypeQuery, Operation: operation, Message: msg, Cause: cause}
}

func NewPersistenceError(operation, msg string, cause error) *SessionError {
	return &SessionError{Type: ErrTypePersistence, Operation: operation, Message: msg, Cause: cause}
}
