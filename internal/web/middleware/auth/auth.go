package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/municipal-dp/digital-profile/internal/apperror"
	coreauth "github.com/municipal-dp/digital-profile/internal/auth"
	"github.com/municipal-dp/digital-profile/internal/route"
	"github.com/municipal-dp/digital-profile/internal/token"
	"github.com/municipal-dp/digital-profile/internal/web/current"
)

// TokenLocalsKey is the fiber.Locals key holding the raw bearer token.
const TokenLocalsKey = "bearer_token"

// Config configures the security filter.
type Config struct {
	Registry *route.Registry
	Staff    *token.StaffService
	Citizen  *token.CitizenService
}

// New creates the security filter.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions || cfg.Registry.IsPublic(c.Path(), c.Method()) {
			return c.Next()
		}

		raw, ok := current.BearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return apperror.Unauthenticated("missing or malformed bearer token")
		}

		p, err := cfg.authenticate(c.UserContext(), raw)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("bearer token rejected")
			return err
		}

		coreauth.SetPrincipal(c, p)
		c.Locals(TokenLocalsKey, raw)

		return c.Next()
	}
}

// authenticate tries the staff service and falls back to the citizen service for tokens the
// staff service can not even verify the signature or audience of.
func (cfg Config) authenticate(ctx context.Context, raw string) (*coreauth.Principal, error) {
	staffClaims, err := cfg.Staff.VerifyKind(ctx, raw, token.KindAccess)
	if err == nil {
		p, errP := staffClaims.Principal()
		if errP != nil {
			return nil, apperror.JwtAuthentication("uid", "token does not carry a user id")
		}

		return p, nil
	}

	if !errors.Is(err, token.ErrMalformed) || cfg.Citizen == nil {
		return nil, apperror.InvalidToken(err)
	}

	citizenClaims, errC := cfg.Citizen.VerifyKind(ctx, raw, token.KindAccess)
	if errC != nil {
		if errors.Is(errC, token.ErrMalformed) {
			return nil, apperror.InvalidToken(err)
		}

		return nil, apperror.InvalidToken(errC)
	}

	p, errP := citizenClaims.Principal()
	if errP != nil {
		return nil, apperror.JwtAuthentication(token.CitizenClaimID, "token does not carry a citizen id")
	}

	return p, nil
}

// Token returns the raw bearer token of an authenticated request.
func Token(c *fiber.Ctx) (string, bool) {
	raw, ok := c.Locals(TokenLocalsKey).(string)
	return raw, ok && raw != ""
}

// PrincipalName returns the email of the request principal, for access logs.
func PrincipalName(c *fiber.Ctx) string {
	if p, ok := c.Locals(coreauth.LocalsKey).(*coreauth.Principal); ok {
		return p.Email
	}

	return ""
}
