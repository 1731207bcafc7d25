package errors

import (
	"fmt"
	"os"
)

// Standard error codes
const (
	ErrInvalidRequest      = 400
	ErrUnauthorized        = 401
	ErrForbidden           = 403
	ErrNotFound            = 404
	ErrConflict            = 409
	ErrInternalServerError = 500
	ErrServiceUnavailable  = 503

	// Spin-flow error codes (1000+)
	ErrSpinInProgress       = 1001
	ErrNotConfigured        = 1002
	ErrWalletNotConnected   = 1003
	ErrWrongNetwork         = 1004
	ErrSubmissionRejected   = 1005
	ErrChainUnavailable     = 1006
	ErrConfirmationTimeout  = 1007
	ErrReconciliationFailed = 1008
	ErrAttemptNotFound      = 1009
	ErrAttemptNotRetryable  = 1010
	ErrIdentityUnavailable  = 1011
	ErrConfigError          = 1012
)

// AppError represents a custom application error
type AppError struct {
	Code         int    `json:"code"`
	Message      string `json:"message"`
	DebugMessage string `json:"debug_message,omitempty"`
	Err          error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.DebugMessage != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.DebugMessage)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s [%v]", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error into an AppError
func Wrap(err error, code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Response returns a map suitable for JSON response
func (e *AppError) Response() map[string]interface{} {
	response := map[string]interface{}{
		"code":    e.Code,
		"message": e.Message,
	}

	// Include debug message in development environment
	env := os.Getenv("APP_ENV")
	if (env == "dev" || env == "development") && e.DebugMessage != "" {
		response["debug_message"] = e.DebugMessage
	}

	return response
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetCode extracts error code from an error
func GetCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return ErrInternalServerError
}

// HTTPStatusFromCode maps error codes to HTTP status codes
func HTTPStatusFromCode(code int) int {
	switch code {
	case ErrInvalidRequest:
		return 400
	case ErrUnauthorized:
		return 401
	case ErrForbidden:
		return 403
	case ErrNotFound, ErrAttemptNotFound:
		return 404
	case ErrConflict, ErrSpinInProgress:
		return 409
	case ErrServiceUnavailable, ErrChainUnavailable:
		return 503
	case ErrNotConfigured, ErrConfigError:
		return 500
	case ErrWalletNotConnected, ErrWrongNetwork, ErrSubmissionRejected, ErrAttemptNotRetryable:
		return 400
	case ErrConfirmationTimeout:
		return 504
	case ErrReconciliationFailed, ErrIdentityUnavailable:
		return 502
	default:
		return 500
	}
}
