// Package service provides the application services of the contacts backend.
//
// Services hold the business rules and orchestrate domain models. They
// declare the storage, cache and delivery interfaces they depend on, so
// that concrete adapters are injected from cmd and replaced by fakes in
// tests.
//
// This package contains:
//
//   - PasswordHasher: bcrypt and argon2id password hashing
//   - TokenService: access, refresh and email-confirmation JWTs
//   - UserService: signup, login, refresh, email confirmation, avatar
//   - ContactService: ownership-scoped contact CRUD, search and birthdays
//   - RateLimiterRegistry: per-client request limiters
package service
