package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeAI         ErrorType = "ai"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"

	// Code-generation failure kinds. Callers branch on these with IsType.
	ErrorTypeTimeout         ErrorType = "timeout"
	ErrorTypeTransport       ErrorType = "transport"
	ErrorTypeInvalidResponse ErrorType = "invalid_response"
	ErrorTypePersistence     ErrorType = "persistence"
	ErrorTypeCanceled        ErrorType = "canceled"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"cause,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func newAppError(typ ErrorType, code, message string, cause error) *AppError {
	return &AppError{
		Type:    typ,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewValidationError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, code, message, cause)
}

func NewIOError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeIO, code, message, cause)
}

func NewAIError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeAI, code, message, cause)
}

func NewNetworkError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeNetwork, code, message, cause)
}

func NewConfigError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeConfig, code, message, cause)
}

func NewInternalError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, code, message, cause)
}

// NewTimeoutError reports that every attempt of a retried call timed out.
func NewTimeoutError(attempts int, cause error) *AppError {
	return newAppError(ErrorTypeTimeout, ErrCodeRetriesExhausted,
		"request timed out after multiple attempts", cause).WithContext("attempts", attempts)
}

// NewTransportError reports a non-retryable failure talking to a remote endpoint.
func NewTransportError(message string, cause error) *AppError {
	return newAppError(ErrorTypeTransport, ErrCodeTransportFailed, message, cause)
}

// NewInvalidResponseError reports a response that parsed but lacked the expected field.
func NewInvalidResponseError(message string) *AppError {
	return newAppError(ErrorTypeInvalidResponse, ErrCodeInvalidResponse, message, nil)
}

func NewPersistenceError(message string, cause error) *AppError {
	return newAppError(ErrorTypePersistence, ErrCodePersistenceFailed, message, cause)
}

func NewCanceledError(cause error) *AppError {
	return newAppError(ErrorTypeCanceled, ErrCodeCanceled, "request canceled", cause)
}

// WithContext adds context to an error
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// TypeOf returns the ErrorType of the first AppError in err's chain, or "" if there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsType reports whether err carries an AppError of the given type.
func IsType(err error, typ ErrorType) bool {
	return err != nil && TypeOf(err) == typ
}

// UserMessage renders err as the text shown to an end user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return "Error: " + err.Error()
	}
	switch appErr.Type {
	case ErrorTypeTimeout:
		return "API Error: Request timed out after multiple attempts."
	case ErrorTypeInvalidResponse:
		return "Error: Invalid API response format."
	case ErrorTypeTransport:
		if appErr.Cause != nil {
			return fmt.Sprintf("API Error: %s: %v", appErr.Message, appErr.Cause)
		}
		return "API Error: " + appErr.Message
	case ErrorTypeCanceled:
		return "Request canceled."
	default:
		return "Error: " + appErr.Message
	}
}

// Is and As are re-exported so callers importing this package under the
// name "errors" keep access to the standard helpers.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

// Common error codes
const (
	ErrCodeFileNotFound      = "FILE_NOT_FOUND"
	ErrCodeFileNotReadable   = "FILE_NOT_READABLE"
	ErrCodeInvalidFormat     = "INVALID_FORMAT"
	ErrCodeAIServiceFailed   = "AI_SERVICE_FAILED"
	ErrCodeAITimeout         = "AI_TIMEOUT"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeMissingAPIKey     = "MISSING_API_KEY"
	ErrCodeNetworkTimeout    = "NETWORK_TIMEOUT"
	ErrCodeInvalidConfig     = "INVALID_CONFIG"
	ErrCodeRetriesExhausted  = "RETRIES_EXHAUSTED"
	ErrCodeTransportFailed   = "TRANSPORT_FAILED"
	ErrCodeInvalidResponse   = "INVALID_RESPONSE"
	ErrCodePersistenceFailed = "PERSISTENCE_FAILED"
	ErrCodeCanceled          = "CANCELED"
	ErrCodeCircuitOpen       = "CIRCUIT_OPEN"
	ErrCodePromptTooShort    = "PROMPT_TOO_SHORT"
	ErrCodeUnknownTopic      = "UNKNOWN_TOPIC"
	ErrCodeUnknownOption     = "UNKNOWN_OPTION"
)
