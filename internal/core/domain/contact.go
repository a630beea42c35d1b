package domain

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// Contact constraints.
const (
	MaxContactNameLength  = 50
	MaxContactPhoneLength = 30
	MaxContactNoteLength  = 500
)

// Contact is an address-book entry owned by a single user.
type Contact struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Birthday  Date      `json:"birthday"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContactInput is the writable part of a contact, used by create and update.
type ContactInput struct {
	Name     string
	Surname  string
	Email    string
	Phone    string
	Birthday Date
	Note     string
}

// ContactFilter selects contacts by exact, case-insensitive field match.
// Empty fields are ignored; set fields are combined with AND.
type ContactFilter struct {
	Name    string
	Surname string
	Email   string
}

// IsEmpty reports whether no criterion is set.
func (f ContactFilter) IsEmpty() bool {
	return f.Name == "" && f.Surname == "" && f.Email == ""
}

// Normalize trims whitespace from every field.
func (f *ContactFilter) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Surname = strings.TrimSpace(f.Surname)
	f.Email = strings.TrimSpace(f.Email)
}

// Validate normalizes and validates the input in place.
func (in *ContactInput) Validate() error {
	var violations []string

	in.Name = strings.TrimSpace(in.Name)
	in.Surname = strings.TrimSpace(in.Surname)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Note = strings.TrimSpace(in.Note)

	if in.Name == "" {
		violations = append(violations, "name is required")
	}
	if utf8.RuneCountInString(in.Name) > MaxContactNameLength {
		violations = append(violations, "name exceeds 50 characters")
	}
	if utf8.RuneCountInString(in.Surname) > MaxContactNameLength {
		violations = append(violations, "surname exceeds 50 characters")
	}
	if in.Email != "" {
		if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
			violations = append(violations, "email is not a valid address")
		}
	}
	if len(in.Phone) > MaxContactPhoneLength {
		violations = append(violations, "phone exceeds 30 characters")
	} else if !validPhone(in.Phone) {
		violations = append(violations, "phone may only contain digits, spaces and +-().")
	}
	if utf8.RuneCountInString(in.Note) > MaxContactNoteLength {
		violations = append(violations, "note exceeds 500 characters")
	}

	if len(violations) > 0 {
		return ErrContactValidation.WithDetails(strings.Join(violations, "; "))
	}
	return nil
}

// Apply overwrites the writable fields of c with in.
func (c *Contact) Apply(in ContactInput) {
	c.Name = in.Name
	c.Surname = in.Surname
	c.Email = in.Email
	c.Phone = in.Phone
	c.Birthday = in.Birthday
	c.Note = in.Note
}

func validPhone(phone string) bool {
	for _, r := range phone {
		switch {
		case r >= '0' && r <= '9':
		case strings.ContainsRune("+-(). ", r):
		default:
			return false
		}
	}
	return true
}
