// Package auth provides the staff authentication endpoints.
package auth

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
	security "github.com/municipal-dp/digital-profile/internal/web/middleware/auth"
	"github.com/municipal-dp/digital-profile/internal/web/response"
)

const (
	// Path is the base path of the staff auth endpoints.
	Path = handler.APIPrefix + "/auth"
)

// LoginInput holds staff credentials.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

// RefreshInput carries a refresh token.
type RefreshInput struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// LogoutInput optionally carries the refresh token to invalidate with the access token.
type LogoutInput struct {
	RefreshToken string `json:"refreshToken"`
}

// LoginView is the response of a successful login.
type LoginView struct {
	token.Pair
	User handler.UserView `json:"user"`
}

// Service provides the staff auth endpoints.
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
		g.Public(http.MethodPost, "/login", s.Login),
		g.Public(http.MethodPost, "/register", s.Register),
		g.Public(http.MethodPost, "/refresh", s.Refresh),
		g.Public(http.MethodPost, "/password-reset/request", s.RequestReset),
		g.Public(http.MethodPost, "/password-reset/reset", s.Reset),
		g.Protected(http.MethodPost, "/logout", s.Logout),
	)
}

// Login exchanges credentials of an approved user for a token pair.
func (s *Service) Login(c *fiber.Ctx) error {
	var in LoginInput
	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	user, err := s.deps.Users.Authenticate(c.UserContext(), in.Email, in.Password)
	if err != nil {
		return err
	}

	pair, err := s.deps.StaffTokens.GenerateTokenPair(user)
	if err != nil {
		return err
	}

	return response.Message(c, LoginView{Pair: pair, User: handler.NewUserView(user)}, "login successful")
}

// Register creates an unapproved user.
func (s *Service) Register(c *fiber.Ctx) error {
	var in coreauth.RegisterInput
	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	user, err := s.deps.Users.Register(c.UserContext(), in)
	if err != nil {
		return err
	}

	return response.Created(c, handler.NewUserView(user), "registration received, awaiting approval")
}

// Refresh issues a new access token for a valid refresh token. Authorities are re-read from
// the store, so permission changes apply from the next refresh on.
func (s *Service) Refresh(c *fiber.Ctx) error {
	var in RefreshInput
	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	ctx := c.UserContext()

	claims, err := s.deps.StaffTokens.VerifyKind(ctx, in.RefreshToken, token.KindRefresh)
	if err != nil {
		return apperror.InvalidToken(err)
	}

	user, err := s.deps.Users.GetByEmail(ctx, claims.Subject)
	if errors.Is(err, apperror.ErrUserNotFound) {
		return apperror.Unauthenticated("user no longer exists")
	}

	if err != nil {
		return err
	}

	if user.ID.String() != claims.UserID {
		return apperror.InvalidToken(token.ErrMalformed)
	}

	if err := usable(user); err != nil {
		return err
	}

	access, err := s.deps.StaffTokens.GenerateToken(user)
	if err != nil {
		return err
	}

	return response.OK(c, token.Pair{
		AccessToken:  access,
		RefreshToken: in.RefreshToken,
		ExpiresIn:    int64(s.deps.StaffTokens.AccessTTL().Seconds()),
		TokenType:    "Bearer",
	})
}

// RequestReset issues a password reset code.
func (s *Service) RequestReset(c *fiber.Ctx) error {
	var in passwordreset.RequestInput
	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	if err := s.deps.StaffReset.Request(c.UserContext(), in); err != nil {
		return err
	}

	return response.Message(c, nil, "password reset code sent")
}

// Reset sets a new password with a reset code.
func (s *Service) Reset(c *fiber.Ctx) error {
	var in passwordreset.ResetInput
	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	if err := s.deps.StaffReset.Reset(c.UserContext(), in); err != nil {
		return err
	}

	return response.Message(c, nil, "password has been reset")
}

// Logout blacklists the presented access token and, when given, the refresh token of the
// same user.
func (s *Service) Logout(c *fiber.Ctx) error {
	p, err := current.User(c)
	if err != nil {
		return err
	}

	raw, ok := security.Token(c)
	if !ok {
		return apperror.Unauthenticated("")
	}

	var in LogoutInput
	if len(c.Body()) > 0 {
		if err := handler.Bind(c, &in); err != nil {
			return err
		}
	}

	ctx := c.UserContext()

	if err := s.deps.StaffTokens.InvalidateToken(ctx, raw); err != nil {
		return err
	}

	if in.RefreshToken != "" {
		sub, errSub := s.deps.StaffTokens.ExtractEmail(in.RefreshToken)
		if errSub != nil || sub != p.Email {
			return apperror.InvalidToken(errSub)
		}

		if err := s.deps.StaffTokens.InvalidateToken(ctx, in.RefreshToken); err != nil {
			return err
		}
	}

	return response.Message(c, nil, "logged out")
}

func usable(u *models.User) error {
	if u.IsDeleted {
		return apperror.InvalidUserState(u.ID, coreauth.ReasonDeleted).WithStatus(http.StatusForbidden)
	}

	if !u.IsApproved {
		return apperror.InvalidUserState(u.ID, coreauth.ReasonNotApproved).WithStatus(http.StatusForbidden)
	}

	return nil
}
