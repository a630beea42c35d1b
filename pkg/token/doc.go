// Package token provides random identifiers and digests for bearer tokens.
//
// Bearer credentials handed to clients are never persisted as-is; callers
// store Hash(token) and later check a presented token with Match, which
// compares in constant time.
package token
