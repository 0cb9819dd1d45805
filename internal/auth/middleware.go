package auth

import (
	"github.com/gofiber/fiber/v2"
)

// RequirePermission creates Fiber middleware that requires a specific permission.
func RequirePermission(e *Evaluator, perm PermissionType) fiber.Handler {
	return Enforce(e, Require(perm))
}

// RequireAnyPermission creates Fiber middleware that requires at least one of the given permissions.
func RequireAnyPermission(e *Evaluator, perms ...PermissionType) fiber.Handler {
	return Enforce(e, AnyOf(perms...))
}

// RequireAllPermissions creates Fiber middleware that requires all the given permissions.
func RequireAllPermissions(e *Evaluator, perms ...PermissionType) fiber.Handler {
	return Enforce(e, AllOf(perms...))
}

// Enforce creates Fiber middleware evaluating req. Denials are returned as errors so the
// application error handler renders them.
func Enforce(e *Evaluator, req Requirement) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := e.Authorize(c.UserContext(), req); err != nil {
			return err
		}

		return c.Next()
	}
}

// SetPrincipal attaches p to both the user context and fiber.Locals.
func SetPrincipal(c *fiber.Ctx, p *Principal) {
	c.SetUserContext(ContextWithPrincipal(c.UserContext(), p))
	c.Locals(LocalsKey, p)
}

// PrincipalFromCtx returns the principal attached by SetPrincipal.
func PrincipalFromCtx(c *fiber.Ctx) (*Principal, bool) {
	return PrincipalFromContext(c.UserContext())
}
