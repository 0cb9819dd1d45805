// Package auth provides authentication and authorization for staff users and citizens.
//
// # Permission Catalog
//
// PermissionType is a closed enum with an exhaustive name table. Each type maps to exactly
// one row of the permissions table, seeded at startup by SeedPermissions. Tokens carry
// permissions as authority strings ("PERMISSION_" + name) which ParseAuthority decodes
// back; unknown names fail with a PermissionNotFound error instead of panicking.
//
// # Credential Stores
//
// UserStore and CitizenStore own the principal lifecycle:
//   - Register creates an unapproved principal
//   - Approve flips unapproved to approved exactly once
//   - Delete is a soft delete, repeated deletes fail
//   - UpdatePermissions replaces the staff permission set wholesale
//
// Every mutation re-reads the principal inside a transaction and writes back guarded by its
// version, so a concurrent change surfaces as InvalidUserState.
//
// # Authorization
//
// The security filter attaches a *Principal to the request context. Evaluator checks
// Requirements against its authorities:
//
//	app.Get("/api/v1/users",
//	    auth.RequirePermission(evaluator, auth.PermViewUser),
//	    handler,
//	)
//
// A denial yields InsufficientPermissions listing the required and missing permissions.
package auth
