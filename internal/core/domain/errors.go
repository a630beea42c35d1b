// Package domain defines the core domain models for the contacts service.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
// Codes have the form CT-<AREA>-<NNNN>; the first three digits of the numeric
// part are the HTTP status the error maps to.
type DomainError struct {
	Code    string // Error code (e.g., "CT-CONT-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support. Two domain errors match when their codes match.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// AsDomainError returns the first DomainError in err's chain, or nil.
func AsDomainError(err error) *DomainError {
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return nil
}

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrVerification indicates an email confirmation for an unknown user.
	ErrVerification = NewDomainError("CT-AUTH-4000", "verification error")

	// ErrInvalidCredentials indicates missing or unusable credentials.
	ErrInvalidCredentials = NewDomainError("CT-AUTH-4010", "could not validate credentials")

	// ErrTokenInvalid indicates a malformed, mis-signed or wrong-scope token.
	ErrTokenInvalid = NewDomainError("CT-AUTH-4011", "invalid token")

	// ErrTokenExpired indicates the token is past its expiry.
	ErrTokenExpired = NewDomainError("CT-AUTH-4012", "token expired")

	// ErrInvalidEmail indicates login with an unknown email.
	ErrInvalidEmail = NewDomainError("CT-AUTH-4013", "invalid email")

	// ErrInvalidPassword indicates login with a wrong password.
	ErrInvalidPassword = NewDomainError("CT-AUTH-4014", "invalid password")

	// ErrEmailNotConfirmed indicates login before the email was confirmed.
	ErrEmailNotConfirmed = NewDomainError("CT-AUTH-4015", "email not confirmed")

	// ErrRefreshTokenMismatch indicates the presented refresh token is not the stored one.
	ErrRefreshTokenMismatch = NewDomainError("CT-AUTH-4016", "invalid refresh token")

	// ErrConfirmationTokenInvalid indicates an unusable email confirmation token.
	ErrConfirmationTokenInvalid = NewDomainError("CT-AUTH-4220", "invalid token for email verification")
)

// ============================================================================
// User Errors (USER)
// ============================================================================

var (
	// ErrUserExists indicates signup with an email that is already registered.
	ErrUserExists = NewDomainError("CT-USER-4090", "account already exists")

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = NewDomainError("CT-USER-4040", "user not found")

	// ErrUserValidation indicates user input failed validation.
	ErrUserValidation = NewDomainError("CT-USER-4220", "user validation failed")

	// ErrAvatarInvalid indicates an unsupported or unreadable avatar upload.
	ErrAvatarInvalid = NewDomainError("CT-USER-4001", "invalid avatar image")

	// ErrAvatarTooLarge indicates the avatar exceeds the configured size limit.
	ErrAvatarTooLarge = NewDomainError("CT-USER-4130", "avatar image too large")
)

// ============================================================================
// Contact Errors (CONT)
// ============================================================================

var (
	// ErrContactNotFound indicates the contact does not exist or belongs to another user.
	ErrContactNotFound = NewDomainError("CT-CONT-4040", "contact not found")

	// ErrContactValidation indicates contact input failed validation.
	ErrContactValidation = NewDomainError("CT-CONT-4220", "contact validation failed")

	// ErrSearchCriteria indicates a search without any criteria.
	ErrSearchCriteria = NewDomainError("CT-CONT-4001", "at least one search criterion is required")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrBadRequest indicates a malformed request body or parameter.
	ErrBadRequest = NewDomainError("CT-SYS-4000", "bad request")

	// ErrRateLimited indicates the client exceeded its request rate.
	ErrRateLimited = NewDomainError("CT-SYS-4290", "rate limit exceeded")

	// ErrInternal indicates an unexpected internal error.
	ErrInternal = NewDomainError("CT-SYS-5000", "internal server error")

	// ErrStorage indicates a storage layer failure.
	ErrStorage = NewDomainError("CT-SYS-5001", "storage error")

	// ErrUnavailable indicates a dependency is not ready.
	ErrUnavailable = NewDomainError("CT-SYS-5030", "service unavailable")
)
