package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Principal is the authenticated identity for one request. It is rebuilt from
// verified claims every time and never persisted.
type Principal struct {
	ID       uuid.UUID
	Username string
	IsRoot   bool
	Grants   []Grant
	TokenID  string
	// TokenExpiresAt is the exp claim, used to size the revocation entry at logout.
	TokenExpiresAt time.Time
}

// Can checks root first, then the grant set.
func (p *Principal) Can(action, resource string) bool {
	if p == nil {
		return false
	}
	if p.IsRoot {
		return true
	}
	return Satisfies(p.Grants, action, resource)
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
