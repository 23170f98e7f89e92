package scoring

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks a submission rejected before scoring. Callers should
	// re-prompt the user rather than retry.
	ErrValidation = errors.New("assessment validation failed")

	// ErrConfiguration marks an inconsistent catalog. It is raised when a
	// catalog is registered or an engine is built, never per request.
	ErrConfiguration = errors.New("catalog configuration invalid")

	// ErrInvalidInput is returned by the engine when input that should have
	// been validated upstream breaks an invariant.
	ErrInvalidInput = errors.New("scoring input violates invariants")

	// ErrUnknownCatalogVersion is returned when no catalog is registered
	// under the requested version.
	ErrUnknownCatalogVersion = errors.New("unknown catalog version")
)

// FieldError describes one offending field of a submission.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationError collects every problem found in a submission.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *ValidationError) add(field, code, format string, args ...interface{}) {
	e.Fields = append(e.Fields, FieldError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

func (e *ValidationError) empty() bool { return len(e.Fields) == 0 }

// ConfigurationError reports every inconsistency found in a catalog.
type ConfigurationError struct {
	Version  string
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s (version %q): %s", ErrConfiguration.Error(), e.Version, strings.Join(e.Problems, "; "))
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
