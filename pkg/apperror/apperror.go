package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrDuplicate         = errors.New("duplicate item")
	ErrMissingIdentifier = errors.New("missing identifier")
	ErrNetwork           = errors.New("network error")
	ErrServer            = errors.New("server error")
	ErrInternal          = errors.New("internal error")
	ErrUnauthorized      = errors.New("unauthorized")
)

type AppError struct {
	BaseError  error
	Message    string
	Details    string
	Field      string
	StatusCode int
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (Details: %s, Cause: %v)", e.BaseError.Error(), e.Message, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s (Details: %s)", e.BaseError.Error(), e.Message, e.Details)
}

func (e *AppError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.BaseError, e.Err}
	}
	return []error{e.BaseError}
}

func NewAppError(base error, msg, details string, err error) *AppError {
	return &AppError{BaseError: base, Message: msg, Details: details, Err: err}
}

// NewValidation reports a field that is missing or malformed.
func NewValidation(field, msg string) *AppError {
	e := NewAppError(ErrValidation, msg, fmt.Sprintf("field '%s' failed validation", field), nil)
	e.Field = field
	return e
}

func NewDuplicate(kind, details string) *AppError {
	return NewAppError(ErrDuplicate, fmt.Sprintf("this %s already exists", kind), details, nil)
}

func NewMissingIdentifier(kind string) *AppError {
	msg := fmt.Sprintf("%s has no identifier", kind)
	return NewAppError(ErrMissingIdentifier, msg, "delete requires a server-assigned id", nil)
}

// NewNetwork wraps a transport failure where no HTTP response was received.
func NewNetwork(details string, err error) *AppError {
	return NewAppError(ErrNetwork, "could not reach the profile service", details, err)
}

// NewServer carries the backend's own message when it provided one.
func NewServer(status int, message string) *AppError {
	if message == "" {
		message = http.StatusText(status)
	}
	e := NewAppError(ErrServer, message, fmt.Sprintf("profile service answered %d", status), nil)
	e.StatusCode = status
	return e
}

func NewNotFound(resource, identifier string) *AppError {
	msg := fmt.Sprintf("%s not found", resource)
	details := fmt.Sprintf("%s with identifier '%s' was not found", resource, identifier)
	return NewAppError(ErrNotFound, msg, details, nil)
}

func NewInternal(details string, err error) *AppError {
	return NewAppError(ErrInternal, "An internal error occurred", details, err)
}

// NewUnauthorized is a server error for a rejected bearer token. It matches
// both ErrUnauthorized and ErrServer.
func NewUnauthorized(status int, message string) *AppError {
	srv := NewServer(status, message)
	e := NewAppError(ErrUnauthorized, srv.Message, srv.Details, srv)
	e.StatusCode = status
	return e
}

func ToHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrMissingIdentifier) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrNetwork) {
		return http.StatusServiceUnavailable
	}
	var appErr *AppError
	if errors.As(err, &appErr) && errors.Is(err, ErrServer) {
		if appErr.StatusCode == http.StatusUnauthorized || appErr.StatusCode == http.StatusForbidden ||
			appErr.StatusCode == http.StatusNotFound || appErr.StatusCode == http.StatusBadRequest {
			return appErr.StatusCode
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (e *AppError) ToJSON() gin.H {
	body := gin.H{
		"error":   e.BaseError.Error(),
		"message": e.Message,
	}
	if e.Field != "" {
		body["field"] = e.Field
	}
	return body
}
