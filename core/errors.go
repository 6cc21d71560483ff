package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func IsValidationError(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

// AuthError signals rejected credentials or an expired/invalid refresh.
// Its message is user-visible; callers surface it as-is, no auto-retry.
type AuthError struct {
	message string
}

func NewAuthError(msg string) error {
	return &AuthError{message: msg}
}

func (err AuthError) Error() string {
	return err.message
}

func IsAuthError(err error) bool {
	_, ok := errors.Cause(err).(*AuthError)
	return ok
}

// NetworkError signals an unreachable or failing backend. Retry is
// user-initiated by re-submitting the action.
type NetworkError struct {
	Err error
}

func NewNetworkError(err error) error {
	return &NetworkError{Err: err}
}

func (err NetworkError) Error() string {
	if err.Err == nil {
		return "network error"
	}
	return err.Err.Error()
}

func IsNetworkError(err error) bool {
	_, ok := errors.Cause(err).(*NetworkError)
	return ok
}

// StorageError signals a session store read/write failure. Surfaced during
// login/logout; tolerated during best-effort feature refresh.
type StorageError struct {
	Err error
}

func NewStorageError(err error) error {
	return &StorageError{Err: err}
}

func (err StorageError) Error() string {
	if err.Err == nil {
		return "storage error"
	}
	return err.Err.Error()
}

func IsStorageError(err error) bool {
	_, ok := errors.Cause(err).(*StorageError)
	return ok
}
