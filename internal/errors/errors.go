package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// InputUnreadable indicates the input path cannot be opened or walked
	InputUnreadable ErrorCode = "INPUT_UNREADABLE"
	// InputMalformed indicates a class entry that cannot be decoded
	InputMalformed ErrorCode = "INPUT_MALFORMED"
	// CodecUnknown indicates an unregistered codec name
	CodecUnknown ErrorCode = "CODEC_UNKNOWN"
	// ArchiveWriteFailed indicates the output archive could not be written
	ArchiveWriteFailed ErrorCode = "ARCHIVE_WRITE_FAILED"
	// OrderViolation indicates entries reached the archive out of order
	OrderViolation ErrorCode = "ORDER_VIOLATION"
	// StoreUnavailable indicates the run database cannot be opened
	StoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	// TargetsInvalid indicates a broken target declaration file
	TargetsInvalid ErrorCode = "TARGETS_INVALID"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Command     string `json:"command,omitempty"`
	Safe        bool   `json:"safe,omitempty"`
	Description string `json:"description,omitempty"`
}

// JabiError represents a jabi error with code, message, and suggestions
type JabiError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// NewJabiError creates a new JabiError with the fixes suggested for its code
func NewJabiError(code ErrorCode, message string, cause error) *JabiError {
	return &JabiError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Error implements the error interface
func (e *JabiError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *JabiError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *JabiError) WithDetails(details interface{}) *JabiError {
	e.Details = details
	return e
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	StoreUnavailable: {
		{
			Command:     "jabi init",
			Safe:        true,
			Description: "Create the work directory and run database",
		},
	},
	InputMalformed: {
		{
			Command:     "jabi dump ${input}",
			Safe:        true,
			Description: "Inspect the input that failed to decode",
		},
	},
	CodecUnknown: {
		{
			Command:     "jabi extract --help",
			Safe:        true,
			Description: "List the registered codec names",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
