package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// ConfirmationSubject is the subject of confirmation messages.
const ConfirmationSubject = "Confirm your email"

// ConfirmationData fills the confirmation template.
type ConfirmationData struct {
	Username string
	Link     string
	Expires  string
}

// ConfirmationLink builds <baseURL>/auth/confirmed_email/<token>.
func ConfirmationLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/auth/confirmed_email/" + url.PathEscape(token)
}

// RenderConfirmation renders the confirmation message for one recipient.
func RenderConfirmation(to string, data ConfirmationData) (Message, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "verify_email.html", data); err != nil {
		return Message{}, fmt.Errorf("render confirmation: %w", err)
	}
	return Message{
		To:      to,
		Subject: ConfirmationSubject,
		HTML:    buf.String(),
	}, nil
}
