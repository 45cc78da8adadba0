package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for Carbonara core errors.
type ErrorCode string

// Catalog and configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
	CATALOG_LOAD_FAILED      ErrorCode = "CATALOG_LOAD_FAILED"
	CATALOG_INVALID_TOOL     ErrorCode = "CATALOG_INVALID_TOOL"
	TOOL_NOT_FOUND           ErrorCode = "TOOL_NOT_FOUND"
)

// Detection error codes
const (
	DETECTION_PROBE_FAILED  ErrorCode = "DETECTION_PROBE_FAILED"
	DETECTION_PROBE_TIMEOUT ErrorCode = "DETECTION_PROBE_TIMEOUT"
)

// Installation error codes
const (
	INSTALL_COMMAND_FAILED ErrorCode = "INSTALL_COMMAND_FAILED"
	INSTALL_ENV_FAILED     ErrorCode = "INSTALL_ENV_FAILED"
	INSTALL_NOT_SUPPORTED  ErrorCode = "INSTALL_NOT_SUPPORTED"
	INSTALL_VERIFY_FAILED  ErrorCode = "INSTALL_VERIFY_FAILED"
)

// Prerequisite error codes
const (
	PREREQ_UNMET        ErrorCode = "PREREQ_UNMET"
	PREREQ_CHECK_FAILED ErrorCode = "PREREQ_CHECK_FAILED"
)

// Analysis execution error codes
const (
	ANALYZE_NOT_RUNNABLE ErrorCode = "ANALYZE_NOT_RUNNABLE"
	ANALYZE_EXEC_FAILED  ErrorCode = "ANALYZE_EXEC_FAILED"
	ANALYZE_TIMEOUT      ErrorCode = "ANALYZE_TIMEOUT"
)

// Parsing error codes
const (
	PARSE_INVALID_PAYLOAD ErrorCode = "PARSE_INVALID_PAYLOAD"
	PARSE_NO_PARSER       ErrorCode = "PARSE_NO_PARSER"
)

// Manifest error codes
const (
	MANIFEST_MISSING_PARAMETER ErrorCode = "MANIFEST_MISSING_PARAMETER"
	MANIFEST_INVALID_TEMPLATE  ErrorCode = "MANIFEST_INVALID_TEMPLATE"
)

// State store error codes
const (
	STATE_OPEN_FAILED  ErrorCode = "STATE_OPEN_FAILED"
	STATE_QUERY_FAILED ErrorCode = "STATE_QUERY_FAILED"
	STATE_WRITE_FAILED ErrorCode = "STATE_WRITE_FAILED"
)

// CarbonaraError represents a structured error with error code, message, and
// optional cause. It supports error wrapping and retryability hints for error
// handling logic.
type CarbonaraError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *CarbonaraError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
// This enables using errors.Is() and errors.As() with wrapped errors.
func (e *CarbonaraError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is a CarbonaraError with the same Code.
func (e *CarbonaraError) Is(target error) bool {
	var cerr *CarbonaraError
	if errors.As(target, &cerr) {
		return e.Code == cerr.Code
	}
	return false
}

// NewError creates a new non-retryable CarbonaraError with the given code and message.
func NewError(code ErrorCode, message string) *CarbonaraError {
	return &CarbonaraError{
		Code:    code,
		Message: message,
	}
}

// NewRetryableError creates a new retryable CarbonaraError with the given code
// and message. Use this for transient errors that may succeed on retry
// (e.g., network timeouts).
func NewRetryableError(code ErrorCode, message string) *CarbonaraError {
	return &CarbonaraError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// WrapError creates a new non-retryable CarbonaraError that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *CarbonaraError {
	return &CarbonaraError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the error code of err if it is a CarbonaraError, or an empty
// code otherwise.
func CodeOf(err error) ErrorCode {
	var cerr *CarbonaraError
	if errors.As(err, &cerr) {
		return cerr.Code
	}
	return ""
}
