package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *LudicsError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path).
		WithDetail("hint", "run: ludics init")
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *LudicsError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// ConfigValidation creates a schema validation error for a config file
func ConfigValidation(path string, problems []string) *LudicsError {
	return New(ErrCodeConfigValidation, fmt.Sprintf("configuration %s failed validation", path)).
		WithDetail("path", path).
		WithDetail("problems", problems)
}

// ToolUnavailable reports that an external binary (tmux, pgrep, ps) could not be used.
func ToolUnavailable(tool string, err error) *LudicsError {
	return Wrap(err, ErrCodeToolUnavailable, fmt.Sprintf("%s is not available", tool)).
		WithDetail("tool", tool)
}

// CommandFailed creates a command execution failure error
func CommandFailed(cmd string, err error) *LudicsError {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, ErrCodeCommandTimeout, fmt.Sprintf("command timed out: %s", cmd)).
			WithDetail("command", cmd)
	}
	if stderrors.Is(err, exec.ErrNotFound) {
		return Wrap(err, ErrCodeCommandNotFound, fmt.Sprintf("command not found: %s", cmd)).
			WithDetail("command", cmd)
	}

	ludicsErr := Wrap(err, ErrCodeCommandFailed, fmt.Sprintf("command failed: %s", cmd)).
		WithDetail("command", cmd)

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		ludicsErr = ludicsErr.WithDetail("exitCode", exitErr.ExitCode())
	}

	return ludicsErr
}

// ReportWrite creates an error for a failed report or JSON snapshot write
func ReportWrite(path string, err error) *LudicsError {
	return Wrap(err, ErrCodeReportWrite, fmt.Sprintf("failed to write report: %s", path)).
		WithDetail("path", path)
}

// InvalidInput creates an error for bad user-supplied arguments
func InvalidInput(reason string) *LudicsError {
	return New(ErrCodeInvalidInput, reason)
}
