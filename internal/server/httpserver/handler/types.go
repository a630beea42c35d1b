package handler

import (
	"time"

	"github.com/yndnr/contacts-go/internal/core/domain"
)

// CodeOK is the envelope code of a successful response.
const CodeOK = "OK"

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      CodeOK,
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// SignupRequest is the request body for POST /auth/signup.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the JSON request body for POST /auth/login.
// Username is accepted as a synonym of Email, matching the form encoding.
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// RequestEmailRequest is the request body for POST /auth/request_email.
type RequestEmailRequest struct {
	Email string `json:"email"`
}

// MessageResponse carries a human-readable status message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ContactRequest is the request body for POST /contacts and PUT /contacts/{id}.
type ContactRequest struct {
	Name     string      `json:"name"`
	Surname  string      `json:"surname"`
	Email    string      `json:"email"`
	Phone    string      `json:"phone"`
	Birthday domain.Date `json:"birthday"`
	Note     string      `json:"note"`

	// Other is the legacy name of Note.
	Other string `json:"other,omitempty"`
}

// Input converts the request into a domain.ContactInput.
func (r ContactRequest) Input() domain.ContactInput {
	note := r.Note
	if note == "" {
		note = r.Other
	}
	return domain.ContactInput{
		Name:     r.Name,
		Surname:  r.Surname,
		Email:    r.Email,
		Phone:    r.Phone,
		Birthday: r.Birthday,
		Note:     note,
	}
}

// ContactPage is the response body for GET /contacts.
type ContactPage struct {
	Items    []*domain.Contact `json:"items"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// BirthdayResponse is one entry of GET /contacts/birthdays.
type BirthdayResponse struct {
	*domain.Contact
	NextBirthday domain.Date `json:"next_birthday"`
	DaysUntil    int         `json:"days_until"`
}

// HealthResponse is the response body for GET /health and GET /ready.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}
