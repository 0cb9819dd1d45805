// Package current resolves the authenticated staff user or citizen of a request.
package current

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/municipal-dp/digital-profile/internal/apperror"
	"github.com/municipal-dp/digital-profile/internal/auth"
	"github.com/municipal-dp/digital-profile/internal/db/models"
	"github.com/municipal-dp/digital-profile/internal/token"
)

const bearerPrefix = "bearer "

// BearerToken extracts the token of an "Authorization: Bearer <token>" header value.
func BearerToken(header string) (string, bool) {
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}

	raw := strings.TrimSpace(header[len(bearerPrefix):])

	return raw, raw != "" && !strings.ContainsAny(raw, " \t")
}

// User returns the staff principal attached by the security filter.
func User(c *fiber.Ctx) (*auth.Principal, error) {
	p, ok := auth.PrincipalFromCtx(c)
	if !ok || p.Kind != auth.KindStaff {
		return nil, apperror.Unauthenticated("staff authentication required")
	}

	return p, nil
}

// UserID returns the id of the staff principal attached by the security filter.
func UserID(c *fiber.Ctx) (models.ID, error) {
	p, err := User(c)
	if err != nil {
		return models.NilID, err
	}

	return p.ID, nil
}

// CitizenID parses the bearer token of the request with the citizen token service and
// returns its citizenId claim. It does not rely on the principal set by the security filter.
func CitizenID(c *fiber.Ctx, svc *token.CitizenService) (models.ID, error) {
	raw, ok := BearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return models.NilID, apperror.Unauthenticated("missing or malformed bearer token")
	}

	claims, err := svc.VerifyKind(c.UserContext(), raw, token.KindAccess)
	if err != nil {
		return models.NilID, apperror.InvalidToken(err)
	}

	if claims.CitizenID == "" {
		return models.NilID, apperror.JwtAuthentication(token.CitizenClaimID, "token does not carry a citizen id")
	}

	id, err := claims.CitizenUUID()
	if err != nil {
		return models.NilID, apperror.JwtAuthentication(token.CitizenClaimID, "citizen id claim is not a valid id")
	}

	return id, nil
}
