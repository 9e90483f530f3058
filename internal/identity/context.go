// AngelaMos | 2026
// context.go

package identity

import (
	"context"
)

type contextKey string

const identityKey contextKey = "identity"

func NewContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the request identity. ok is false for anonymous
// requests; protected handlers reject through the authorization gate, not
// here.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
