// Package citizen provides the citizen self service endpoints.
//
// Citizens authenticate against their own token service. Handlers resolve the citizen from
// the bearer token with current.CitizenID rather than from the request principal.
package citizen

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/municipal-dp/digital-profile/internal/apperror"
	coreauth "github.com/municipal-dp/digital-profile/internal/auth"
	"github.com/municipal-dp/digital-profile/internal/db/models"
	"github.com/municipal-dp/digital-profile/internal/passwordreset"
	"github.com/municipal-dp/digital-profile/internal/route"
	"github.com/municipal-dp/digital-profile/internal/token"
	"github.com/municipal-dp/digital-profile/internal/web/current"
	"github.com/municipal-dp/digital-profile/internal/web/handler"
	staffauth "github.com/municipal-dp/digital-profile/internal/web/handler/auth"
	"github.com/municipal-dp/digital-profile/internal/web/response"
)

const (
	// Path is the base path of the citizen endpoints.
	Path = handler.APIPrefix + "/citizen"
)

// LoginView is the response of a successful citizen login.
type LoginView struct {
	token.Pair
	Citizen handler.CitizenView `json:"citizen"`
}

// Service provides the citizen endpoints.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Init registers routes.
func (s *Service) Init(b *route.Binder, deps *handler.Deps) error {
	if !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.deps = deps

	g := b.Group(Path)

	return errors.Join(
		g.Public(http.MethodPost, "/auth/register", s.Register),
		g.Public(http.MethodPost, "/auth/login", s.Login),
		g.Public(http.MethodPost, "/auth/refresh", s.Refresh),
		g.Public(http.MethodPost, "/auth/password-reset/request", s.RequestReset),
		g.Public(http.MethodPost, "/auth/password-reset/reset", s.Reset),
		g.Protected(http.MethodPost, "/auth/logout", s.Logout),
		g.Protected(http.MethodGet, "/me", s.Me),
	)
}

// Register creates an unapproved citizen.
func (s *Service) Register(c *fiber.Ctx) error {
	var in coreauth.CitizenRegisterInput
	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	citizen, err := s.deps.Citizens.Register(c.UserContext(), in)
	if err != nil {
		return err
	}

	return response.Created(c, handler.NewCitizenView(citizen), "registration received, awaiting approval")
}

// Login exchanges credentials of an approved citizen for a token pair.
func (s *Service) Login(c *fiber.Ctx) error {
	var in staffauth.LoginInput
	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	citizen, err := s.deps.Citizens.Authenticate(c.UserContext(), in.Email, in.Password)
	if err != nil {
		return err
	}

	pair, err := s.deps.CitizenTokens.GenerateTokenPair(citizen)
	if err != nil {
		return err
	}

	return response.Message(c, LoginView{Pair: pair, Citizen: handler.NewCitizenView(citizen)}, "login successful")
}

// Refresh issues a new access token for a valid citizen refresh token.
func (s *Service) Refresh(c *fiber.Ctx) error {
	var in staffauth.RefreshInput
	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	ctx := c.UserContext()

	claims, err := s.deps.CitizenTokens.VerifyKind(ctx, in.RefreshToken, token.KindRefresh)
	if err != nil {
		return apperror.InvalidToken(err)
	}

	id, err := claims.CitizenUUID()
	if err != nil {
		return apperror.JwtAuthentication(token.CitizenClaimID, "token does not carry a citizen id")
	}

	citizen, err := s.deps.Citizens.Get(ctx, id)
	if errors.Is(err, apperror.ErrUserNotFound) {
		return apperror.Unauthenticated("citizen no longer exists")
	}

	if err != nil {
		return err
	}

	if err := usable(citizen); err != nil {
		return err
	}

	access, err := s.deps.CitizenTokens.GenerateToken(citizen)
	if err != nil {
		return err
	}

	return response.OK(c, token.Pair{
		AccessToken:  access,
		RefreshToken: in.RefreshToken,
		ExpiresIn:    int64(s.deps.CitizenTokens.AccessTTL().Seconds()),
		TokenType:    "Bearer",
	})
}

// RequestReset issues a citizen password reset code.
func (s *Service) RequestReset(c *fiber.Ctx) error {
	var in passwordreset.RequestInput
	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	if err := s.deps.CitizenReset.Request(c.UserContext(), in); err != nil {
		return err
	}

	return response.Message(c, nil, "password reset code sent")
}

// Reset sets a new citizen password with a reset code.
func (s *Service) Reset(c *fiber.Ctx) error {
	var in passwordreset.ResetInput
	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	if err := s.deps.CitizenReset.Reset(c.UserContext(), in); err != nil {
		return err
	}

	return response.Message(c, nil, "password has been reset")
}

// Logout blacklists the presented citizen access token and, when given, the refresh token.
func (s *Service) Logout(c *fiber.Ctx) error {
	id, err := current.CitizenID(c, s.deps.CitizenTokens)
	if err != nil {
		return err
	}

	raw, _ := current.BearerToken(c.Get(fiber.HeaderAuthorization))

	var in staffauth.LogoutInput
	if len(c.Body()) > 0 {
		if err := handler.Bind(c, &in); err != nil {
			return err
		}
	}

	ctx := c.UserContext()

	if err := s.deps.CitizenTokens.InvalidateToken(ctx, raw); err != nil {
		return err
	}

	if in.RefreshToken != "" {
		claims, errClaims := s.deps.CitizenTokens.ExtractAllClaims(in.RefreshToken)
		if errClaims != nil || claims.CitizenID != id.String() {
			return apperror.InvalidToken(errClaims)
		}

		if err := s.deps.CitizenTokens.InvalidateToken(ctx, in.RefreshToken); err != nil {
			return err
		}
	}

	return response.Message(c, nil, "logged out")
}

// Me returns the calling citizen.
func (s *Service) Me(c *fiber.Ctx) error {
	id, err := current.CitizenID(c, s.deps.CitizenTokens)
	if err != nil {
		return err
	}

	citizen, err := s.deps.Citizens.Get(c.UserContext(), id)
	if err != nil {
		return err
	}

	return response.OK(c, handler.NewCitizenView(citizen))
}

func usable(c *models.Citizen) error {
	if c.IsDeleted {
		return apperror.InvalidUserState(c.ID, coreauth.ReasonDeleted).WithStatus(http.StatusForbidden)
	}

	if !c.IsApproved {
		return apperror.InvalidUserState(c.ID, coreauth.ReasonNotApproved).WithStatus(http.StatusForbidden)
	}

	return nil
}
