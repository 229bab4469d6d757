package main

import (
	"errors"
	"fmt"

	"github.com/nexconsult/fssp-api/internal/models"
	"github.com/nexconsult/fssp-api/internal/utils"
)

// usageError marks bad input or configuration
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// exitCode maps a command error to the process exit status
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var usageErr *usageError
	var validationErr *utils.ValidationError
	if errors.As(err, &usageErr) || errors.As(err, &validationErr) {
		return 1
	}

	kind, ok := models.KindOf(err)
	if !ok {
		return 6
	}
	switch kind {
	case models.KindCaptchaAttemptsExceeded:
		return 2
	case models.KindCaptchaSolveFailure:
		return 3
	case models.KindResultParsingFailure:
		return 4
	case models.KindUpstreamUnavailable:
		return 5
	default:
		return 6
	}
}

// errorMessage is the text printed for a failed command. Lookup causes are only logged.
func errorMessage(err error) string {
	if _, ok := models.KindOf(err); ok {
		return models.PublicMessage(err)
	}
	return err.Error()
}
