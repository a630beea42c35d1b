package handler

import (
	"context"

	"github.com/yndnr/contacts-go/internal/core/domain"
)

type contextKey string

const userKey contextKey = "contacts.user"

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userKey).(*domain.User)
	return u
}
