package domain

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// User constraints.
const (
	MaxUsernameLength = 30
	MaxEmailLength    = 255
	MinPasswordLength = 6
	// MaxPasswordLength is the bcrypt input limit in bytes.
	MaxPasswordLength = 72
)

// User is a registered account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`

	// PasswordHash is the encoded password hash (bcrypt or argon2id).
	PasswordHash string `json:"-"`

	// RefreshTokenHash is the SHA-256 of the currently valid refresh token.
	// Empty means no refresh token is accepted.
	RefreshTokenHash string `json:"-"`

	Confirmed bool      `json:"confirmed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Signup holds the validated input of a new account.
type Signup struct {
	Username string
	Email    string
	Password string
}

// NormalizeEmail trims and lower-cases an email address.
// Emails are compared case-insensitively throughout the service.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a bare RFC 5322 address.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrUserValidation.WithDetails("email is required")
	}
	if len(email) > MaxEmailLength {
		return ErrUserValidation.WithDetails("email exceeds 255 characters")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrUserValidation.WithDetails("email is not a valid address")
	}
	return nil
}

// Validate normalizes and validates the signup input in place.
func (s *Signup) Validate() error {
	var violations []string

	s.Username = strings.TrimSpace(s.Username)
	s.Email = NormalizeEmail(s.Email)

	switch n := utf8.RuneCountInString(s.Username); {
	case n == 0:
		violations = append(violations, "username is required")
	case n > MaxUsernameLength:
		violations = append(violations, "username exceeds 30 characters")
	}

	if err := ValidateEmail(s.Email); err != nil {
		violations = append(violations, err.(*DomainError).Details)
	}

	if err := ValidatePassword(s.Password); err != nil {
		violations = append(violations, err.(*DomainError).Details)
	}

	if len(violations) > 0 {
		return ErrUserValidation.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

// ValidatePassword checks password length bounds.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrUserValidation.WithDetails("password must be at least 6 characters")
	}
	if len(password) > MaxPasswordLength {
		return ErrUserValidation.WithDetails("password exceeds 72 bytes")
	}
	return nil
}
