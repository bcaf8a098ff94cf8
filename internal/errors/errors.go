// Package errors provides error types and handling for funcstack.
// It includes a coded application error plus helpers that classify deploy failures.
package errors

import (
	"errors"
	"fmt"
)

// AppError represents an application error with a stable code.
type AppError struct {
	// Code is an error code string for programmatic handling
	Code string
	// Message is a user-friendly error message
	Message string
	// Cause is the underlying error (for error wrapping)
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is to work with AppError.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Code != "" && e.Code == t.Code
	}
	return false
}

// Predefined error codes.
const (
	// Caller input codes.
	ErrCodeInvalidManifest  = "INVALID_MANIFEST"
	ErrCodeInvalidTemplate  = "INVALID_TEMPLATE"
	ErrCodeTemplateConflict = "TEMPLATE_CONFLICT"

	// Remote state codes.
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeNoUpdates     = "NO_UPDATES"
	ErrCodeStackNotReady = "STACK_NOT_READY"

	// Deploy failure codes.
	ErrCodeStackFailed     = "STACK_FAILED"
	ErrCodeStackTimeout    = "STACK_TIMEOUT"
	ErrCodeUploadFailed    = "UPLOAD_FAILED"
	ErrCodeDeployIntegrity = "DEPLOY_INTEGRITY"
)

// Sentinels usable with errors.Is. They match any AppError carrying the same code.
var (
	ErrNotFound      = &AppError{Code: ErrCodeNotFound, Message: "resource not found"}
	ErrNoUpdates     = &AppError{Code: ErrCodeNoUpdates, Message: "no updates are to be performed"}
	ErrStackNotReady = &AppError{Code: ErrCodeStackNotReady, Message: "stack is not ready for an update"}
)

// New creates an AppError with the given code.
func New(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Convenience constructors for common errors

// ErrResourceNotFound creates a not found error.
func ErrResourceNotFound(message string, cause error) *AppError {
	return New(ErrCodeNotFound, message, cause)
}

// ErrNoChanges wraps a provider response reporting that the submitted template changes nothing.
func ErrNoChanges(cause error) *AppError {
	return New(ErrCodeNoUpdates, "no updates are to be performed", cause)
}

// ErrNotReady wraps a provider response reporting that the stack is still converging or rolling back.
func ErrNotReady(cause error) *AppError {
	return New(ErrCodeStackNotReady, "stack is not ready for an update", cause)
}

// ErrStackFailed creates an error for a stack operation that ended in a failure status.
func ErrStackFailed(message string, cause error) *AppError {
	return New(ErrCodeStackFailed, message, cause)
}

// ErrStackTimeout creates an error for a convergence wait that exceeded its bound.
func ErrStackTimeout(message string, cause error) *AppError {
	return New(ErrCodeStackTimeout, message, cause)
}

// ErrUploadFailed creates an error for a failed package transfer.
func ErrUploadFailed(message string, cause error) *AppError {
	return New(ErrCodeUploadFailed, message, cause)
}

// ErrDeployIntegrity creates an error for a post-deploy health check failure.
// The infrastructure converged but the deployed code misbehaves.
func ErrDeployIntegrity(message string, cause error) *AppError {
	return New(ErrCodeDeployIntegrity, message, cause)
}

// ErrTemplateConflict creates an error for colliding logical resource names.
func ErrTemplateConflict(message string, cause error) *AppError {
	return New(ErrCodeTemplateConflict, message, cause)
}

// ErrInvalidTemplate creates an error for a document that fails validation.
func ErrInvalidTemplate(message string, cause error) *AppError {
	return New(ErrCodeInvalidTemplate, message, cause)
}

// ErrInvalidManifest creates an error for a manifest that cannot be used.
func ErrInvalidManifest(message string, cause error) *AppError {
	return New(ErrCodeInvalidManifest, message, cause)
}

// GetErrorCode extracts the error code from an error.
// Returns empty string if the error is not an AppError.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetErrorMessage extracts a user-friendly message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// GetErrorDetails extracts detailed error information including the underlying cause.
// Returns the underlying error message if available, otherwise returns the main error message.
func GetErrorDetails(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Cause != nil {
			return appErr.Cause.Error()
		}
		return appErr.Message
	}
	return err.Error()
}

// IsIntegrity reports whether err is a post-deploy health check failure.
func IsIntegrity(err error) bool {
	return GetErrorCode(err) == ErrCodeDeployIntegrity
}

// IsInfrastructure reports whether err is a failure to bring the infrastructure to its target state.
// Any non-nil error that is not an integrity error counts.
func IsInfrastructure(err error) bool {
	return err != nil && !IsIntegrity(err)
}
