// Package domain defines the core domain models for the contacts service.
//
// Domain models are plain entities without IO dependencies or framework
// coupling. This package contains:
//
//   - User: account with credentials, confirmation state and avatar
//   - Contact: address-book entry owned by exactly one user
//   - Date: calendar date without time zone, used for birthdays
//   - Errors: domain error definitions with stable codes
package domain
