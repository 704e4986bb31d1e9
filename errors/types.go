package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// ErrorCode is the stable, machine-readable half of a LudicsError. Codes are
// printed in --json output and log fields, so existing values never change.
type ErrorCode string

// Codes are grouped by the stage that raises them.
const (
	// config loading and schema checks
	ErrCodeConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// tmux, pgrep and ps missing from PATH
	ErrCodeToolUnavailable ErrorCode = "TOOL_UNAVAILABLE"

	// SafeBuilder runs
	ErrCodeCommandTimeout  ErrorCode = "COMMAND_TIMEOUT"
	ErrCodeCommandNotFound ErrorCode = "COMMAND_NOT_FOUND"
	ErrCodeCommandFailed   ErrorCode = "COMMAND_FAILED"

	// sessions.md and JSON snapshot output
	ErrCodeReportWrite ErrorCode = "REPORT_WRITE"

	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// LudicsError pairs a code and a human message with optional key/value
// details and the underlying cause. Only the cause is left out of ToJSON.
type LudicsError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// New returns an error with no cause.
func New(code ErrorCode, message string) *LudicsError {
	return &LudicsError{Code: code, Message: message}
}

// Wrap attaches code and message to err, which stays reachable through Unwrap.
func Wrap(err error, code ErrorCode, message string) *LudicsError {
	return &LudicsError{Code: code, Message: message, Cause: err}
}

// Error renders "CODE: message", plus the cause in parentheses when there is one.
func (e *LudicsError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
}

func (e *LudicsError) Unwrap() error {
	return e.Cause
}

// WithDetail sets key on the receiver and returns it so calls chain.
func (e *LudicsError) WithDetail(key string, value interface{}) *LudicsError {
	if e.Details == nil {
		e.Details = map[string]interface{}{}
	}
	e.Details[key] = value
	return e
}

// ToJSON is the indented form printed by --json on failure. Details that do
// not marshal yield an empty string.
func (e *LudicsError) ToJSON() string {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

// GetCode returns the code of the first LudicsError in err's chain, or "".
func GetCode(err error) ErrorCode {
	var le *LudicsError
	if stderrors.As(err, &le) {
		return le.Code
	}
	return ""
}

// Is reports whether err's chain carries code.
func Is(err error, code ErrorCode) bool {
	return code != "" && GetCode(err) == code
}
