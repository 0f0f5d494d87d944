package services

import (
	"errors"
	"fmt"
)

var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAuthNotConfigured  = errors.New("authentication credentials are not configured")
)

// ValidationError reports a rejected input. It is returned before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// StoreError wraps a persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// IntegrationReason is the closed set of failure kinds reported by the
// webhook and subtask integrations.
type IntegrationReason string

const (
	ReasonNoURL         IntegrationReason = "no_url"
	ReasonNoDescription IntegrationReason = "no_description"
	ReasonNoOpenAIKey   IntegrationReason = "no_openai_key"
	ReasonOpenAIError   IntegrationReason = "openai_error"
	ReasonException     IntegrationReason = "exception"
	ReasonSinkError     IntegrationReason = "sink_error"
)

// IntegrationError is a failure of an external integration. Status carries the
// upstream HTTP status when one was received.
type IntegrationError struct {
	Reason IntegrationReason
	Status int
	Detail string
}

func (e *IntegrationError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
