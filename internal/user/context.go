package user

import "context"

type contextKey string

const userContextKey contextKey = "user"

// WithContext returns a copy of ctx carrying the authenticated user
func WithContext(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// FromContext extracts the authenticated user from the request context
func FromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userContextKey).(*User)
	return u, ok && u != nil
}
