package models

import "fmt"

// ValidationError signals missing or invalid required input. It is raised
// before any model call and surfaced to the caller as a field-level message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// GenerationErrorKind enumerates the ways a generation attempt can fail.
type GenerationErrorKind string

const (
	GenerationSafety GenerationErrorKind = "safety"
	GenerationLength GenerationErrorKind = "length"
	GenerationFormat GenerationErrorKind = "format"
	GenerationOther  GenerationErrorKind = "unknown"
)

// GenerationError is a sanitized, kind-specific generation failure. Message
// is safe to show to end users; raw model output is logged server-side only.
type GenerationError struct {
	Kind    GenerationErrorKind
	Message string
}

func (e *GenerationError) Error() string {
	return e.Message
}

// NewGenerationSafetyError reports a safety-policy refusal.
func NewGenerationSafetyError() *GenerationError {
	return &GenerationError{
		Kind:    GenerationSafety,
		Message: "The AI model could not provide an estimation due to safety concerns. Please revise your input and try again.",
	}
}

// NewGenerationLengthError reports a truncated response.
func NewGenerationLengthError() *GenerationError {
	return &GenerationError{
		Kind:    GenerationLength,
		Message: "The AI model response was too long and got cut off. Please try with more specific inputs.",
	}
}

// NewGenerationFormatError reports output that did not match the expected structure.
func NewGenerationFormatError() *GenerationError {
	return &GenerationError{
		Kind:    GenerationFormat,
		Message: "The AI model was unable to generate a response in the required format. Please try again or check server logs.",
	}
}

// NewGenerationUnknownError reports any other non-success termination.
func NewGenerationUnknownError() *GenerationError {
	return &GenerationError{
		Kind:    GenerationOther,
		Message: "An unexpected issue occurred with the AI model during generation. Please try again later.",
	}
}

// PersistenceError wraps a history write failure. It is logged and never
// surfaced to the estimation caller.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to save estimation history: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
