package auth

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/municipal-dp/digital-profile/internal/apperror"
)

// Mode combines the permissions of a Requirement.
type Mode int

const (
	// ModeAll requires every listed permission.
	ModeAll Mode = iota
	// ModeAny requires at least one listed permission.
	ModeAny
)

// Requirement is the permission condition attached to a handler.
type Requirement struct {
	Mode        Mode
	Permissions []PermissionType
}

// Require needs the single permission p.
func Require(p PermissionType) Requirement {
	return Requirement{Mode: ModeAll, Permissions: []PermissionType{p}}
}

// AnyOf needs at least one of perms.
func AnyOf(perms ...PermissionType) Requirement {
	return Requirement{Mode: ModeAny, Permissions: perms}
}

// AllOf needs all of perms.
func AllOf(perms ...PermissionType) Requirement {
	return Requirement{Mode: ModeAll, Permissions: perms}
}

// Satisfied evaluates the requirement against a principal and returns the missing permissions.
func (r Requirement) Satisfied(p *Principal) (bool, []PermissionType) {
	var missing []PermissionType

	for _, perm := range r.Permissions {
		if !p.Has(perm) {
			missing = append(missing, perm)
		}
	}

	if r.Mode == ModeAny {
		return len(r.Permissions) == 0 || len(missing) < len(r.Permissions), missing
	}

	return len(missing) == 0, missing
}

func (r Requirement) names() []string {
	return permissionNames(r.Permissions)
}

func permissionNames(perms []PermissionType) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, p.String())
	}

	return out
}

// Evaluator decides permission requirements against the principal carried by a context.
// Authorities come from the verified token, so evaluation never touches the database.
type Evaluator struct{}

// NewEvaluator creates a new evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Authorize returns nil when the context principal satisfies req, Unauthenticated without
// a principal and InsufficientPermissions otherwise.
func (e *Evaluator) Authorize(ctx context.Context, req Requirement) error {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return apperror.Unauthenticated("")
	}

	granted, missing := req.Satisfied(p)
	if granted {
		return nil
	}

	log.Warn().Str("principal", p.Email).Strs("required", req.names()).
		Strs("missing", permissionNames(missing)).
		Msg("principal lacks required permissions")

	return apperror.InsufficientPermissions(req.names(), permissionNames(missing))
}

// HasPermission reports whether the context principal holds perm.
func (e *Evaluator) HasPermission(ctx context.Context, perm PermissionType) bool {
	return e.Authorize(ctx, Require(perm)) == nil
}
