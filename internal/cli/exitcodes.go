package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaklabco/livetype/pkg/fsutil"
	"github.com/yaklabco/livetype/pkg/runner"
)

// Exit codes for livetype.
const (
	// ExitSuccess indicates successful execution with no errors.
	ExitSuccess = 0

	// ExitCompileErrors indicates documents compiled with errors or failed.
	ExitCompileErrors = 1

	// ExitCompileWarnings indicates warnings were found (when strict mode).
	ExitCompileWarnings = 2

	// ExitInvalidUsage indicates invalid command-line usage.
	ExitInvalidUsage = 64

	// ExitConfigError indicates configuration file errors.
	ExitConfigError = 65

	// ExitInternalError indicates an internal error.
	ExitInternalError = 70

	// ExitIOError indicates file I/O errors.
	ExitIOError = 74
)

// Sentinel errors mapped to exit codes.
var (
	// ErrCompileIssuesFound is returned when a command completed but the
	// documents did not compile cleanly. The output already describes why.
	ErrCompileIssuesFound = errors.New("compile issues found")

	// ErrUsage marks invalid flags and arguments.
	ErrUsage = errors.New("invalid usage")

	// ErrConfig marks configuration that could not be loaded.
	ErrConfig = errors.New("failed to load configuration")
)

// IssuesError carries the exit code of a run whose output already
// describes its issues.
type IssuesError struct {
	Code int
}

func (e *IssuesError) Error() string {
	return fmt.Sprintf("%s (exit code %d)", ErrCompileIssuesFound, e.Code)
}

func (e *IssuesError) Unwrap() error {
	return ErrCompileIssuesFound
}

// usageArgs marks argument validation failures as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return fmt.Errorf("%w: %w", ErrUsage, err)
		}
		return nil
	}
}

// ExitCodeFromResult determines the exit code based on result and strict mode.
func ExitCodeFromResult(result *runner.Result, strict bool) int {
	if result == nil {
		return ExitSuccess
	}

	if result.HasFailures() || result.Stats.DocumentsAborted > 0 {
		return ExitCompileErrors
	}

	if strict && result.Stats.DiagnosticsBySeverity["warning"] > 0 {
		return ExitCompileWarnings
	}

	return ExitSuccess
}

// ExitCodeFromError maps a command error to an exit code.
func ExitCodeFromError(err error) int {
	var issues *IssuesError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &issues):
		return issues.Code
	case errors.Is(err, ErrCompileIssuesFound):
		return ExitCompileErrors
	case errors.Is(err, ErrUsage):
		return ExitInvalidUsage
	case errors.Is(err, ErrConfig):
		return ExitConfigError
	case errors.Is(err, fsutil.ErrNotFound),
		errors.Is(err, fsutil.ErrPermissionDenied),
		errors.Is(err, fsutil.ErrIsDirectory),
		errors.Is(err, fsutil.ErrNotDirectory),
		errors.Is(err, ErrInteractiveStdin):
		return ExitIOError
	default:
		return ExitInternalError
	}
}
