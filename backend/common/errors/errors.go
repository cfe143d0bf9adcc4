package errors

import "errors"

// AppError carries a stable error code alongside the human-readable message.
// Handlers switch on the code to pick an HTTP status; the code set is part of
// the API surface and must stay stable.
type AppError struct {
	Code string
	Msg  string
	Err  error
}

func (e *AppError) Error() string {
	return e.Msg
}

func (e *AppError) ErrorCode() string {
	return e.Code
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError with the given code and message.
func New(code string, msg string) *AppError {
	return &AppError{
		Code: code,
		Msg:  msg,
		Err:  errors.New(msg),
	}
}

// Wrap attaches a code and message to an existing error.
func Wrap(err error, code string, msg string) *AppError {
	return &AppError{
		Code: code,
		Msg:  msg,
		Err:  err,
	}
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// CodeOf returns the error code of err, or ErrInternalServer when err carries
// no code.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternalServer
}
