// Package httpserver provides the HTTP/HTTPS server of the contacts API.
//
// It uses the standard library net/http ServeMux with method patterns:
//
//   - Auth endpoints: /auth/signup, /auth/login, /auth/refresh_token, ...
//   - User endpoints: /users/me, /users/avatar
//   - Contact endpoints: /contacts, /contacts/{id}, /contacts/search, /contacts/birthdays
//   - Operational endpoints: /health, /ready, /metrics
//
// Middleware chain: Recover, RequestID, CORS, RateLimit, Audit; Auth is
// applied per route.
package httpserver
