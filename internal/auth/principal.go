package auth

import (
	"context"
	"slices"

	"github.com/municipal-dp/digital-profile/internal/db/models"
)

// PrincipalKind tells staff users and citizens apart.
type PrincipalKind string

const (
	// KindStaff is a municipal staff user.
	KindStaff PrincipalKind = "staff"
	// KindCitizen is a resident.
	KindCitizen PrincipalKind = "citizen"
)

// Principal is the authenticated identity of a request as established from its bearer token.
type Principal struct {
	ID          models.ID
	Email       string
	Kind        PrincipalKind
	Authorities []string
	WardNumber  *int
}

// HasAuthority reports whether the principal holds the authority string.
func (p *Principal) HasAuthority(authority string) bool {
	return slices.Contains(p.Authorities, authority)
}

// Has reports whether the principal holds the permission.
func (p *Principal) Has(perm PermissionType) bool {
	return p.HasAuthority(perm.Authority())
}

// LocalsKey is the fiber.Locals key holding the *Principal.
const LocalsKey = "principal"

type ctxKey string

const principalKey ctxKey = "auth_principal"

// ContextWithPrincipal stores the principal in the context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext extracts the principal placed by the security filter.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	if !ok || p == nil {
		return nil, false
	}

	return p, true
}
