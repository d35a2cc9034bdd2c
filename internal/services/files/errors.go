// File: internal/services/files/errors.go
package files

import "fmt"

type ErrorType string

const (
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeProvider   ErrorType = "PROVIDER"
)

type FileError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *FileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("files %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("files %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *FileError) Unwrap() error { return e.Cause }

func NewConfigError(msg string) *FileError {
	return &FileError{Type: ErrTypeConfig, Operation: "config", Message: msg}
}

func NewValidationError(operation, msg string) *FileError {
	return &FileError{Type: ErrTypeValidation, Operation: operation, Message: msg}
}

func NewProviderError(operation, msg string, cause error) *FileError {
	return &FileError{Type: ErrTypeProvider, Operation: operation, Message: msg, Cause: cause}
}
