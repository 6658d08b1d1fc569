package domain

import "context"

type ownerCtxKey struct{}

// WithOwner attaches the authenticated owner id to the context.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerCtxKey{}, ownerID)
}

// OwnerFromContext returns the authenticated owner id, if any.
func OwnerFromContext(ctx context.Context) (string, bool) {
	ownerID, ok := ctx.Value(ownerCtxKey{}).(string)
	return ownerID, ok && ownerID != ""
}
