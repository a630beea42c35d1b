// Package handler provides the HTTP handlers of the contacts API.
//
//   - auth.go: signup, login, token refresh and email confirmation
//   - user.go: current user and avatar upload
//   - contact.go: contact CRUD, search and upcoming birthdays
//   - health.go: liveness and readiness
//
// Every JSON response uses the Response envelope. Domain errors are mapped
// to HTTP status codes by the three leading digits of their numeric suffix.
package handler
