package auth

import (
	"context"

	"github.com/hsuniversity/classroom/core/user"
)

// Identity is the authenticated caller of a request: the verified claims
// merged with the caller's directory record. Record fields win on conflict,
// so Role is always the directory role.
type Identity struct {
	user.User
	Claims Claims
}

// NewIdentity merges verified claims with the fetched directory record.
func NewIdentity(claims Claims, record user.User) Identity {
	usr := record
	if usr.ID == "" {
		usr.ID = claims.Subject
	}
	if usr.Email == "" {
		usr.Email = claims.Email
	}
	if usr.Role == "" {
		usr.Role = claims.Role
	}
	return Identity{User: usr, Claims: claims}
}

// TokenRole is the role the credential was issued with; informational only.
func (id Identity) TokenRole() user.Role {
	return id.Claims.Role
}

type identityContextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFrom returns the identity attached to ctx, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
