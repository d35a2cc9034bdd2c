// File: internal/services/npc/errors.go
package npc

import "fmt"

type ErrorType string

const (
	ErrTypeConfig     ErrorType = "CONFIG"
	ErrTypeGeneration ErrorType = "GENERATION"
	ErrTypeParse      ErrorType = "PARSE"
)

type NPCError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
}

func (e *NPCError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("npc %s error in %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("npc %s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *NPCError) Unwrap() error { return e.Cause }

func NewConfigError(msg string) *NPCError {
	return &NPCError{Type: ErrTypeConfig, Operation: "config", Message: msg}
}

func NewGenerationError(operation, msg string, cause error) *NPCError {
	return &NPCError{Type: ErrTypeGeneration, Operation: operation, Message: msg, Cause: cause}
}

func NewParseError(operation, msg string, cause error) *NPCError {
	return &NPCError{Type: ErrTypeParse, Operation: operation, Message: msg, Cause: cause}
}
