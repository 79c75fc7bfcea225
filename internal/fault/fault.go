package fault

import (
	"errors"
	"fmt"
)

// Workflow operations fail with one of three terminal error kinds. The HTTP
// layer maps them to 404/403/400; anything else is a server error and the
// caller must not assume the state change was applied.

type NotFoundError struct {
	Code    string
	Message string
}

func (e NotFoundError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type ForbiddenError struct {
	Code    string
	Message string
}

func (e ForbiddenError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NotFound(code, message string) error   { return NotFoundError{Code: code, Message: message} }
func Forbidden(code, message string) error  { return ForbiddenError{Code: code, Message: message} }
func Validation(code, message string) error { return ValidationError{Code: code, Message: message} }

func IsNotFound(err error) bool {
	var e NotFoundError
	return errors.As(err, &e)
}

func IsForbidden(err error) bool {
	var e ForbiddenError
	return errors.As(err, &e)
}

func IsValidation(err error) bool {
	var e ValidationError
	return errors.As(err, &e)
}
