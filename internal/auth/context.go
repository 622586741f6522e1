package auth

import "context"

type identityContextKey struct{}

// ContextWithIdentity attaches the authenticated identity to the context.
// The authenticator sets it exactly once per request; downstream code only
// reads it.
func ContextWithIdentity(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, identityContextKey{}, &u)
}

// IdentityFromContext extracts the authenticated identity from the context.
func IdentityFromContext(ctx context.Context) (User, bool) {
	if ctx == nil {
		return User{}, false
	}
	v, ok := ctx.Value(identityContextKey{}).(*User)
	if !ok || v == nil {
		return User{}, false
	}
	return *v, true
}
