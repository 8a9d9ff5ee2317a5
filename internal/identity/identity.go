// Package identity turns an authenticated outcome into the identity the
// service acts as, applying the account directory and rights policy.
package identity

import (
	"context"
	"slices"

	"github.com/wikimedia/mediawiki-extensions-NetworkSession/internal/auth"
)

// Identity is the user a request runs as after authentication.
type Identity struct {
	Username  string
	SessionID string
	Provider  auth.Type

	// Rights are the effective rights after the directory and any cap.
	Rights []string

	// Ephemeral is set when the account did not exist and was created for
	// this request only. Nothing about it outlives the request.
	Ephemeral bool
}

// Can reports whether the identity holds right.
func (i *Identity) Can(right string) bool {
	return i != nil && slices.Contains(i.Rights, right)
}

type contextKey int

const identityKey contextKey = iota

// FromContext returns the identity stored in ctx, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// WithContext returns a copy of ctx carrying id.
func WithContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}
