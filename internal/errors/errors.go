package errors

import (
	"errors"
	"fmt"
	"net/http"

	"sheetview/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	code := codeForDomainError(err)
	if code == "" {
		code = CodeInternalError
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetCode returns the code of the first AppError in err's chain, the code
// derived from a domain error, or "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	if code := codeForDomainError(err); code != "" {
		return code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeDatabaseError   = "DATABASE_ERROR"
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeExternalService = "EXTERNAL_SERVICE_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"

	// Ingestion pipeline
	CodeMalformedRange     = "MALFORMED_RANGE"
	CodeParseFailed        = "PARSE_FAILED"
	CodeUnsupportedFormat  = "UNSUPPORTED_FORMAT"
	CodeIOFailure          = "IO_FAILURE"
	CodeNetworkFailure     = "NETWORK_FAILURE"
	CodeCrossOriginBlocked = "CROSS_ORIGIN_BLOCKED"
	CodeSuperseded         = "SUPERSEDED"
)

var codeStatus = map[string]int{
	CodeConfigInvalid:      http.StatusInternalServerError,
	CodeDatabaseError:      http.StatusInternalServerError,
	CodeValidationError:    http.StatusBadRequest,
	CodeNotFound:           http.StatusNotFound,
	CodeInternalError:      http.StatusInternalServerError,
	CodeExternalService:    http.StatusBadGateway,
	CodeInvalidInput:       http.StatusBadRequest,
	CodeMalformedRange:     http.StatusUnprocessableEntity,
	CodeParseFailed:        http.StatusUnprocessableEntity,
	CodeUnsupportedFormat:  http.StatusUnprocessableEntity,
	CodeIOFailure:          http.StatusBadRequest,
	CodeNetworkFailure:     http.StatusBadGateway,
	CodeCrossOriginBlocked: http.StatusForbidden,
	CodeSuperseded:         http.StatusConflict,
}

// codeForDomainError classifies the ingestion errors of domain/core
func codeForDomainError(err error) string {
	if kind, ok := core.LoadErrorKindOf(err); ok {
		switch kind {
		case core.IOFailure:
			return CodeIOFailure
		case core.NetworkFailure:
			return CodeNetworkFailure
		case core.CrossOriginBlocked:
			return CodeCrossOriginBlocked
		}
	}
	switch {
	case errors.Is(err, core.ErrSuperseded):
		return CodeSuperseded
	case errors.Is(err, core.ErrMalformedRange):
		return CodeMalformedRange
	case errors.Is(err, core.ErrUnsupportedFormat):
		return CodeUnsupportedFormat
	case errors.Is(err, core.ErrParseFailed), errors.Is(err, core.ErrSheetNotFound):
		return CodeParseFailed
	}
	return ""
}

// FromError returns err as an AppError, classifying domain errors by code
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{Code: GetCode(err), Message: err.Error(), Cause: err}
}

// HTTPStatus maps err to the response status a handler should use
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if status, ok := codeStatus[GetCode(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}


