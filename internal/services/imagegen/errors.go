// File: internal/services/imagegen/errors.go
package imagegen

import "fmt"

type ErrorType string

const (
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypePrompt     ErrorType = "PROMPT"
	ErrTypeGeneration ErrorType = "GENERATION"
	ErrTypeValidation ErrorType = "VALIDATION"
)

type ImageError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *ImageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("imagegen %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("imagegen %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *ImageError) Unwrap() error { return e.Cause }

func NewConfigError(msg string) *ImageError {
	return &ImageError{Type: ErrTypeConfig, Operation: "config", Message: msg}
}

func NewPromptError(operation, msg string, cause error) *ImageError {
	return &ImageError{Type: ErrTypePrompt, Operation: operation, Message: msg, Cause: cause}
}

func NewGenerationError(operation, msg string, cause error) *ImageError {
	return &ImageError{Type: ErrTypeGeneration, Operation: operation, Message: msg, Cause: cause}
}

func NewValidationError(operation, msg string) *ImageError {
	return &ImageError{Type: ErrTypeValidation, Operation: operation, Message: msg}
}
