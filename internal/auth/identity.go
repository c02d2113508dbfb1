// Package auth holds the identity every operation is evaluated against and the
// single authorization policy shared by all job and user use cases.
package auth

import (
	"context"
	"strings"
)

// Role is an actor's authorization role. The string form is what is persisted
// and what travels in tokens.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleDriver Role = "driver"
	RoleClient Role = "client"
)

// ParseRole normalises s and reports whether it names a known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDriver, RoleClient:
		return true
	}
	return false
}

// Identity is the authenticated principal behind a request, as resolved from
// the user directory.
type Identity struct {
	UserID string
	Name   string
	Email  string
	Role   Role
	Active bool
}

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFrom returns the identity stored in ctx, if any.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
