package faults

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorCategory string

const (
	// FailedRequest marks a non-success status returned by the remote service.
	FailedRequest ErrorCategory = "FailedRequest"
	// ParsingError marks a success response whose body is not the expected document.
	ParsingError ErrorCategory = "ParsingError"
	// ConflictingData marks a create that found an existing object in scope.
	ConflictingData ErrorCategory = "ConflictingData"
	// AmbiguousRequest marks a reference matching more than one object.
	AmbiguousRequest ErrorCategory = "AmbiguousRequest"
	// UploadError marks failures bundling or sending binary payloads.
	UploadError         ErrorCategory = "UploadError"
	InterpretationError ErrorCategory = "InterpretationError"
	ValidationError     ErrorCategory = "ValidationError"
	NotFoundError       ErrorCategory = "NotFoundError"
	TransportError      ErrorCategory = "TransportError"
	InternalError       ErrorCategory = "InternalError"
)

type TypedError struct {
	Category ErrorCategory
	Message  string
	Cause    error

	// StatusCode and Body are set for FailedRequest errors.
	StatusCode int
	Body       []byte
}

func (e *TypedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" && e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return string(e.Category)
}

func (e *TypedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewTypedError(category ErrorCategory, message string, cause error) *TypedError {
	return &TypedError{
		Category: category,
		Message:  message,
		Cause:    cause,
	}
}

// NewFailedRequest describes a non-success response for method and target.
func NewFailedRequest(method string, target string, statusCode int, body []byte) *TypedError {
	return &TypedError{
		Category: FailedRequest,
		Message: fmt.Sprintf(
			"%s %s failed with status %d: %s",
			method,
			target,
			statusCode,
			SummarizeBody(body),
		),
		StatusCode: statusCode,
		Body:       append([]byte(nil), body...),
	}
}

func IsCategory(err error, category ErrorCategory) bool {
	if err == nil {
		return false
	}

	var typedErr *TypedError
	if !errors.As(err, &typedErr) {
		return false
	}
	return typedErr.Category == category
}

// StatusCode returns the remote status carried by err, or 0.
func StatusCode(err error) int {
	var typedErr *TypedError
	if !errors.As(err, &typedErr) {
		return 0
	}
	return typedErr.StatusCode
}

// IsNotFound reports whether err is a FailedRequest for a missing remote object.
func IsNotFound(err error) bool {
	return IsCategory(err, FailedRequest) && StatusCode(err) == 404
}

func SummarizeBody(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "<empty>"
	}
	if len(trimmed) > 512 {
		return trimmed[:512] + "..."
	}
	return trimmed
}
