package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrInference     = errors.New("inference error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return &detailedError{marker: marker, message: strings.TrimSpace(message), err: fmt.Errorf("%w: %s: %w", marker, detail, err)}
	}
	return &detailedError{marker: marker, message: strings.TrimSpace(message), err: fmt.Errorf("%w: %s", marker, detail)}
}

// ErrorDetails is the user-facing breakdown of a wrapped error.
type ErrorDetails struct {
	Kind    string
	Message string
}

// Details extracts the human-readable message and marker kind from err. Errors
// that were not produced by Wrap report their full text as the message.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{}
	}
	var detailed *detailedError
	if errors.As(err, &detailed) {
		msg := detailed.message
		if msg == "" {
			msg = detailed.Error()
		}
		return ErrorDetails{Kind: detailed.marker.Error(), Message: msg}
	}
	return ErrorDetails{Kind: kindOf(err), Message: strings.TrimSpace(err.Error())}
}

// IsRetryable reports whether a failure is worth an automatic retry of the run.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration), errors.Is(err, ErrNotFound):
		return false
	default:
		return true
	}
}

type detailedError struct {
	marker  error
	message string
	err     error
}

func (e *detailedError) Error() string { return e.err.Error() }

func (e *detailedError) Unwrap() error { return e.err }

func kindOf(err error) string {
	for _, marker := range []error{ErrValidation, ErrConfiguration, ErrInference, ErrNotFound, ErrTimeout, ErrTransient} {
		if errors.Is(err, marker) {
			return marker.Error()
		}
	}
	return "error"
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
