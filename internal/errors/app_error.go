package errors

import "fmt"

// AppError is the error shape every service returns. Code is a stable
// machine-readable kind, Message is safe to render to the user, Err carries
// the wrapped cause (driver error) and is never shown directly.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func Internal(message string) *AppError {
	if message == "" {
		message = "internal error"
	}
	return New("internal_error", message)
}

// Connection reports storage that is unreachable or corrupt.
func Connection(message string, err error) *AppError {
	return Wrap("connection_error", message, err)
}

// Schema reports a schema creation or migration conflict.
func Schema(message string, err error) *AppError {
	return Wrap("schema_error", message, err)
}

func Validation(code, message string) *AppError {
	return New(code, message)
}

func NotFound(code, message string) *AppError {
	return New(code, message)
}

// InvalidTransition reports a timer event that is illegal in the task's
// current state. The event is never appended when this is returned.
func InvalidTransition(eventType, currentStatus string) *AppError {
	return New(
		"invalid_transition",
		fmt.Sprintf("cannot %s a task that is %s", eventType, currentStatus),
	)
}
