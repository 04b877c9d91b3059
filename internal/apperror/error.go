// Package apperror defines the error type carried from domain code to the
// HTTP and WebSocket surfaces.
package apperror

import (
	"errors"
	"net/http"
	"time"
)

// AppError is an error with a stable code and the HTTP status it maps to.
type AppError struct {
	Code       Code
	Message    string
	StatusCode int
	// Context names the offending value or subject, e.g. a chain or token.
	Context   string
	Timestamp time.Time
	cause     error
}

func (e *AppError) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches another AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && e.Code == t.Code
}

// Body is the JSON error object.
type Body struct {
	Code      Code   `json:"code"`
	Message   string `json:"message"`
	Context   string `json:"context,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Envelope wraps Body as {"error": {...}}.
type Envelope struct {
	Error Body `json:"error"`
}

// Body returns the client-facing view. The cause is never exposed.
func (e *AppError) Body() Body {
	return Body{
		Code:      e.Code,
		Message:   e.Message,
		Context:   e.Context,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
	}
}

// ToResponse returns the HTTP response envelope.
func (e *AppError) ToResponse() Envelope {
	return Envelope{Error: e.Body()}
}

// Option customises an AppError built by New.
type Option func(*AppError)

func WithMessage(message string) Option {
	return func(e *AppError) { e.Message = message }
}

func WithContext(context string) Option {
	return func(e *AppError) { e.Context = context }
}

func WithStatusCode(statusCode int) Option {
	return func(e *AppError) { e.StatusCode = statusCode }
}

func WithCause(cause error) Option {
	return func(e *AppError) { e.cause = cause }
}

// New builds an AppError with the code's default message and status.
func New(code Code, opts ...Option) *AppError {
	info := code.info()
	err := &AppError{
		Code:       code,
		Message:    info.message,
		StatusCode: info.status,
		Timestamp:  time.Now(),
	}
	for _, opt := range opts {
		opt(err)
	}
	return err
}

// Validation is a 400 about the named input.
func Validation(code Code, context string) *AppError {
	return New(code, WithContext(context), WithStatusCode(http.StatusBadRequest))
}

// Internal is a 500 wrapping cause.
func Internal(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause), WithStatusCode(http.StatusInternalServerError))
}

// External is a 503 for a failing dependency.
func External(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause), WithStatusCode(http.StatusServiceUnavailable))
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetCode returns the code of the first AppError in err's chain.
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}
