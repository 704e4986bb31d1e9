package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/grovetools/ludics/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to stderr
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     os.Stderr,
	}
}

// Handle prints a message tailored to the error's code and returns err unchanged.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}
	out := h.Out
	if out == nil {
		out = os.Stderr
	}

	ludicsErr := asLudicsError(err)

	switch errors.GetCode(err) {
	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(out, "❌ Configuration not found at %v. Run 'ludics init' to create one.\n", detail(ludicsErr, "path"))

	case errors.ErrCodeConfigValidation:
		fmt.Fprintf(out, "❌ Configuration is invalid: %v\n", err)
		fmt.Fprintf(out, "Run 'ludics config schema' to see the expected format.\n")

	case errors.ErrCodeConfigInvalid:
		fmt.Fprintf(out, "❌ Configuration could not be read: %v\n", err)

	case errors.ErrCodeToolUnavailable:
		fmt.Fprintf(out, "❌ Required tool '%v' is not available. Make sure it is installed and on PATH.\n", detail(ludicsErr, "tool"))

	case errors.ErrCodeReportWrite:
		fmt.Fprintf(out, "❌ Could not write %v\n", detail(ludicsErr, "path"))
		fmt.Fprintf(out, "Check that the harness directory exists and is writable.\n")

	case errors.ErrCodeInvalidInput:
		fmt.Fprintf(out, "❌ %s\n", ludicsErr.Message)

	default:
		fmt.Fprintf(out, "❌ Error: %v\n", err)
	}

	if h.Verbose && ludicsErr != nil {
		fmt.Fprintf(out, "\nError details:\n%s\n", ludicsErr.ToJSON())
	}
	return err
}

func asLudicsError(err error) *errors.LudicsError {
	for err != nil {
		if le, ok := err.(*errors.LudicsError); ok {
			return le
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil
		}
		err = u.Unwrap()
	}
	return nil
}

func detail(err *errors.LudicsError, key string) interface{} {
	if err == nil || err.Details == nil {
		return "?"
	}
	if v, ok := err.Details[key]; ok {
		return v
	}
	return "?"
}
