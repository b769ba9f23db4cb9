package auth

import (
	"context"
)

const (
	ScopeRead  = "ontograph:read"
	ScopeWrite = "ontograph:write"
	ScopeAdmin = "ontograph:admin"
	RoleAdmin  = "ontograph_admin"
)

type ctxKey struct{}

// Principal is the caller identity taken from a verified token.
type Principal struct {
	Sub      string          `json:"sub"`
	Scopes   map[string]bool `json:"scopes"`
	Roles    map[string]bool `json:"roles"`
	ClientID string          `json:"client_id"`
	Issuer   string          `json:"issuer"`
	Email    string          `json:"email"`
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(*Principal)
	return p, ok && p != nil
}

func (p *Principal) HasScope(s string) bool { return p.Scopes[s] }

func (p *Principal) HasAnyScope(scopes ...string) bool {
	for _, s := range scopes {
		if p.Scopes[s] {
			return true
		}
	}
	return false
}

// IsAdmin reports the admin role or the admin scope.
func (p *Principal) IsAdmin() bool {
	return p.Roles[RoleAdmin] || p.Scopes[ScopeAdmin]
}

// Allows reports whether p may call an operation guarded by scopes: admins
// always may, everyone else needs one of them.
func (p *Principal) Allows(scopes ...string) bool {
	return p.IsAdmin() || p.HasAnyScope(scopes...)
}
