package types

import (
	"fmt"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. Codes prefixed with "fatal_" abort process startup;
// everything else is degraded to a sentinel value inside the component that
// produced it.
const (
	// Fatal (startup must abort)
	ErrCodeBuildMetadataCorrupt ErrorCode = "fatal_build_metadata_corrupt"
	ErrCodeMemoryUndeterminable ErrorCode = "fatal_memory_undeterminable"

	// Degraded (caller receives a sentinel)
	ErrCodeResourceUnreadable    ErrorCode = "degraded_resource_unreadable"
	ErrCodeCapabilityUnavailable ErrorCode = "degraded_capability_unavailable"
	ErrCodeProbeFailed           ErrorCode = "degraded_probe_failed"
)

// IsFatal reports whether errors carrying this code must abort startup.
func (c ErrorCode) IsFatal() bool {
	return strings.HasPrefix(string(c), "fatal_")
}

// AppError is the standard application error type used throughout the module.
// It carries a stable code, a human-readable message and the underlying cause.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another *AppError by code, so callers can write
// errors.Is(err, &AppError{Code: ErrCodeBuildMetadataCorrupt}).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetails returns a copy of the error with the provided details merged in.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsFatal reports whether err (or anything it wraps) is an AppError whose code
// must abort startup.
func IsFatal(err error) bool {
	for err != nil {
		if ae, ok := err.(*AppError); ok && ae.Code.IsFatal() {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
