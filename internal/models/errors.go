package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies lookup failures
type ErrorKind string

const (
	KindUpstreamUnavailable     ErrorKind = "upstream_unavailable"
	KindCaptchaSolveFailure     ErrorKind = "captcha_solve_failure"
	KindCaptchaAttemptsExceeded ErrorKind = "captcha_attempts_exceeded"
	KindResultParsingFailure    ErrorKind = "result_parsing_failure"
)

// Code returns the machine-readable code used by the HTTP layer
func (k ErrorKind) Code() string {
	switch k {
	case KindUpstreamUnavailable:
		return "FSSP_UNAVAILABLE"
	case KindCaptchaSolveFailure:
		return "CAPTCHA_ERROR"
	case KindCaptchaAttemptsExceeded:
		return "CAPTCHA_LIMIT_EXCEEDED"
	case KindResultParsingFailure:
		return "PARSING_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

// Retryable reports whether a fresh pipeline run with a new captcha may succeed.
// Attempts-exceeded needs a cooldown, parsing failures are deterministic.
func (k ErrorKind) Retryable() bool {
	return k == KindCaptchaSolveFailure
}

// LookupError is a classified failure of one registry lookup
type LookupError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Error implements the error interface
func (e *LookupError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *LookupError) Unwrap() error {
	return e.Cause
}

// NewLookupError creates a classified lookup error
func NewLookupError(kind ErrorKind, message string, cause error) *LookupError {
	return &LookupError{Kind: kind, Message: message, Cause: cause}
}

// Unavailable wraps cause as an upstream availability failure
func Unavailable(message string, cause error) *LookupError {
	return NewLookupError(KindUpstreamUnavailable, message, cause)
}

// CaptchaFailure wraps cause as a captcha solving failure
func CaptchaFailure(message string, cause error) *LookupError {
	return NewLookupError(KindCaptchaSolveFailure, message, cause)
}

// UnexpectedErrorMessage is the caller-facing text for unclassified failures
const UnexpectedErrorMessage = "An unexpected error occurred"

// PublicMessage returns the text a caller may see for err.
// Causes and kind prefixes stay in the logs.
func PublicMessage(err error) string {
	var lookupErr *LookupError
	if errors.As(err, &lookupErr) && lookupErr.Message != "" {
		return lookupErr.Message
	}
	return UnexpectedErrorMessage
}

// KindOf extracts the kind of a classified error anywhere in the chain
func KindOf(err error) (ErrorKind, bool) {
	var lookupErr *LookupError
	if errors.As(err, &lookupErr) {
		return lookupErr.Kind, true
	}
	return "", false
}

// IsKind reports whether err is a LookupError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
