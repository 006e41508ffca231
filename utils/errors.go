package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind groups failures by how a caller is expected to react to them
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindConflict      ErrorKind = "conflict"
	KindAuthorization ErrorKind = "authorization"
	KindNotFound      ErrorKind = "not_found"
	KindSignature     ErrorKind = "signature"
	KindProvider      ErrorKind = "provider"
	KindInternal      ErrorKind = "internal"
)

// AppError represents an application error
type AppError struct {
	Code    int       `json:"code"`
	Kind    ErrorKind `json:"kind"`
	Reason  string    `json:"reason,omitempty"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches two AppErrors carrying the same reason, so sentinels survive WithCause.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Reason != "" && e.Reason == t.Reason
}

// WithCause returns a copy of e that wraps err
func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// NewAppError creates a new AppError
func NewAppError(code int, kind ErrorKind, reason, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Reason:  reason,
		Message: message,
		Err:     err,
	}
}

// ValidationFailure creates a 400 error for bad input or an illegal state change
func ValidationFailure(reason, message string) *AppError {
	return NewAppError(http.StatusBadRequest, KindValidation, reason, message, nil)
}

// ConflictFailure creates a 409 error the caller may retry with different input
func ConflictFailure(reason, message string) *AppError {
	return NewAppError(http.StatusConflict, KindConflict, reason, message, nil)
}

// ForbiddenFailure creates a 403 error
func ForbiddenFailure(reason, message string) *AppError {
	return NewAppError(http.StatusForbidden, KindAuthorization, reason, message, nil)
}

// NotFoundFailure creates a 404 error
func NotFoundFailure(reason, message string) *AppError {
	return NewAppError(http.StatusNotFound, KindNotFound, reason, message, nil)
}

// SignatureFailure creates a 400 error for webhook payloads that fail verification
func SignatureFailure(reason, message string) *AppError {
	return NewAppError(http.StatusBadRequest, KindSignature, reason, message, nil)
}

// InternalError hides a low-level failure behind a generic message
func InternalError(message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, KindInternal, "", message, err)
}

// ProviderError marks a payment-provider failure. It is recovered locally and never returned to callers.
func ProviderError(message string, err error) *AppError {
	return NewAppError(http.StatusBadGateway, KindProvider, "", message, err)
}

// GetAppError returns the AppError in err's chain, if any
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	return GetAppError(err) != nil
}

// KindOf reports the taxonomy of err. Unknown errors are internal.
func KindOf(err error) ErrorKind {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Kind
	}
	return KindInternal
}
