// Package auth provides the security filter of the API.
//
// The filter consults the route registry first. Public routes and CORS preflight requests pass
// untouched. Every other request needs an "Authorization: Bearer <token>" header carrying an
// access token of the staff or the citizen token service:
//
//   - no or malformed header: Unauthenticated
//   - rejected token (bad signature, expired, blacklisted, refresh token): InvalidToken
//
// On success the principal is attached to the request through auth.SetPrincipal and the raw
// token is kept in fiber.Locals under TokenLocalsKey for logout.
package auth
