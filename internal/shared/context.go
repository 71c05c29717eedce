package shared

import "context"

type ownerContextKey struct{}

// ContextWithOwner stores the authenticated owner ID in context.
func ContextWithOwner(ctx context.Context, ownerID int64) context.Context {
	return context.WithValue(ctx, ownerContextKey{}, ownerID)
}

// OwnerIDFromContext extracts the authenticated owner ID from context.
// The second return is false when the request carries no verified identity.
func OwnerIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ownerContextKey{}).(int64)
	return id, ok
}
