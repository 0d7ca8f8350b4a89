package qerrors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// RepoUnreadable indicates a git invocation failed for a repository
	RepoUnreadable ErrorCode = "REPO_UNREADABLE"
	// GitNotFound indicates the git binary is missing from PATH
	GitNotFound ErrorCode = "GIT_NOT_FOUND"
	// CacheUnavailable indicates the persistent stats store cannot be used
	CacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
	// ConfigInvalid indicates the configuration is missing or malformed
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// Timeout indicates a git invocation exceeded its deadline
	Timeout ErrorCode = "TIMEOUT"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Command     string `json:"command,omitempty"`
	Safe        bool   `json:"safe,omitempty"`
	Description string `json:"description,omitempty"`
}

// Error carries a stable code, a human message, and the underlying cause.
type Error struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error
}

// New creates a new Error
func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: suggestedFixes[code],
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// suggestedFixes maps error codes to fix actions shown to the operator
var suggestedFixes = map[ErrorCode][]FixAction{
	GitNotFound: {
		{
			Command:     "git --version",
			Safe:        true,
			Description: "Verify git is installed and on PATH",
		},
	},
	ConfigInvalid: {
		{
			Command:     "quantify init",
			Safe:        true,
			Description: "Write a default configuration file",
		},
	},
	CacheUnavailable: {
		{
			Command:     "quantify cache info",
			Safe:        true,
			Description: "Check the stats cache location and permissions",
		},
	},
}
