package configloader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/yaklabco/livetype/pkg/config"
	"github.com/yaklabco/livetype/pkg/typeset"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Field is the path to the invalid field (e.g., "render.encoding").
	Field string

	// Value is the invalid value.
	Value any

	// Message describes the validation error.
	Message string

	// FilePath is the config file containing the error (if known).
	FilePath string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}
	if e.Field != "" {
		parts = append(parts, e.Field)
	}
	parts = append(parts, e.Message)

	return strings.Join(parts, ": ")
}

// ValidationResult contains all validation findings.
type ValidationResult struct {
	// Errors are validation failures that prevent loading.
	Errors []ValidationError

	// Warnings are non-fatal issues.
	Warnings []ValidationError
}

// Valid returns true if there are no errors.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Validate checks a configuration for errors and warnings.
func Validate(cfg *config.Config) *ValidationResult {
	result := &ValidationResult{}
	if cfg == nil {
		return result
	}

	if _, err := config.ParseOutputFormat(string(cfg.Format)); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "format",
			Value:   cfg.Format,
			Message: fmt.Sprintf("invalid format %q; must be one of: text, json", cfg.Format),
		})
	}

	if cfg.Jobs < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "jobs",
			Value:   cfg.Jobs,
			Message: "jobs must be >= 0 (0 means auto)",
		})
	}

	if cfg.LogLevel != "" {
		if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "log_level",
				Value:   cfg.LogLevel,
				Message: fmt.Sprintf("invalid log level %q; must be one of: debug, info, warn, error", cfg.LogLevel),
			})
		}
	}

	validateRender(cfg.Render, result)

	return result
}

// validateRender lifts the render checks into the result and warns about
// fonts the built-in font book does not provide.
func validateRender(r config.Render, result *ValidationResult) {
	if err := r.Validate(); err != nil {
		for _, e := range unjoin(err) {
			var verr *config.ValidationError
			if errors.As(e, &verr) {
				result.Errors = append(result.Errors, ValidationError{
					Field:   verr.Field,
					Value:   verr.Value,
					Message: verr.Message,
				})
				continue
			}
			result.Errors = append(result.Errors, ValidationError{Field: "render", Message: e.Error()})
		}
	}

	if r.Font != "" {
		if _, ok := typeset.DefaultFontBook().Font(r.Font); !ok {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   "render.font",
				Value:   r.Font,
				Message: fmt.Sprintf("font %q is not built in; documents will request it from the host", r.Font),
			})
		}
	}
}

func unjoin(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
