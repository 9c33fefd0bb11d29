package auth

import (
	"fmt"

	"github.com/felixgeelhaar/projectflow/internal/errors"
)

// AuthError is an authentication failure with a stable code. Two AuthErrors
// match under errors.Is when their codes are equal.
type AuthError struct {
	Code    errors.ErrorCode
	Message string
	Cause   error
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Code == e.Code
}

var (
	ErrInvalidCredentials = &AuthError{Code: errors.ErrCodeAuthInvalidCredentials, Message: "Invalid username or password."}
	ErrUsernameTaken      = &AuthError{Code: errors.ErrCodeAuthUsernameTaken, Message: "Username already exists."}
	ErrInvalidInput       = &AuthError{Code: errors.ErrCodeAuthInvalidInput, Message: "Invalid registration data."}
	ErrTokenInvalid       = &AuthError{Code: errors.ErrCodeAuthTokenInvalid, Message: "Invalid token."}
	ErrTokenExpired       = &AuthError{Code: errors.ErrCodeAuthTokenExpired, Message: "Token has expired."}
	ErrTokenMissing       = &AuthError{Code: errors.ErrCodeAuthTokenMissing, Message: "Authentication required."}
)

func wrapError(base *AuthError, message string, cause error) *AuthError {
	if message == "" {
		message = base.Message
	}
	return &AuthError{Code: base.Code, Message: message, Cause: cause}
}
