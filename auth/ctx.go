package auth

import "context"

var userCtxKey = &contextKey{"user"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok && raw != nil
}

// ContextEnricher stores an identity admitted by the request gate in ctx.
// Identities other than *User leave ctx untouched.
func ContextEnricher(ctx context.Context, identity any) context.Context {
	if user, ok := identity.(*User); ok && user != nil {
		return WithContext(ctx, user)
	}
	return ctx
}
