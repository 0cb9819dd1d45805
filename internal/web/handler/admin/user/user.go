// Package user provides the staff user administration endpoints.
package user

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/municipal-dp/digital-profile/internal/auth"
	"github.com/municipal-dp/digital-profile/internal/db/models"
	"github.com/municipal-dp/digital-profile/internal/route"
	"github.com/municipal-dp/digital-profile/internal/web/current"
	"github.com/municipal-dp/digital-profile/internal/web/handler"
	"github.com/municipal-dp/digital-profile/internal/web/response"
)

const (
	// Path is the base path for user management.
	Path = handler.APIPrefix + "/users"

	pathID = "/:" + handler.ParamID
)

// PermissionsInput is the target permission set of a user.
type PermissionsInput struct {
	Permissions []string `json:"permissions" validate:"dive,required"`
}

// PasswordView carries a generated temporary password.
type PasswordView struct {
	TemporaryPassword string `json:"temporaryPassword"`
}

// Service provides CRUD operations for users.
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
	e := deps.Evaluator

	g := b.Group(Path)

	return errors.Join(
		g.Protected(http.MethodGet, handler.RootPath, auth.RequirePermission(e, auth.PermViewUser), s.List),
		g.Protected(http.MethodGet, "/me", s.Me),
		g.Protected(http.MethodGet, pathID, s.Get),
		g.Protected(http.MethodPost, handler.RootPath, auth.RequirePermission(e, auth.PermCreateUser), s.Create),
		g.Protected(http.MethodPut, pathID+"/approve", auth.RequirePermission(e, auth.PermApproveUser), s.Approve),
		g.Protected(http.MethodPut, pathID+"/permissions", auth.RequirePermission(e, auth.PermEditUser), s.UpdatePermissions),
		g.Protected(http.MethodPost, pathID+"/reset-password",
			auth.RequirePermission(e, auth.PermResetUserPassword), s.ResetPassword),
		g.Protected(http.MethodDelete, pathID, auth.RequirePermission(e, auth.PermDeleteUser), s.Delete),
	)
}

// List returns a page of users.
func (s *Service) List(c *fiber.Ctx) error {
	page, err := s.deps.Users.List(c.UserContext(), handler.ListFilter(c))
	if err != nil {
		return err
	}

	return response.Paged(c, handler.NewUserViews(page.Items), response.NewPageMeta(page.Page, page.Size, page.Total))
}

// Me returns the calling user.
func (s *Service) Me(c *fiber.Ctx) error {
	id, err := current.UserID(c)
	if err != nil {
		return err
	}

	user, err := s.deps.Users.Get(c.UserContext(), id)
	if err != nil {
		return err
	}

	return response.OK(c, handler.NewUserView(user))
}

// Get returns one user. Users may always read their own record, others need VIEW_USER.
func (s *Service) Get(c *fiber.Ctx) error {
	self, err := current.UserID(c)
	if err != nil {
		return err
	}

	id, err := handler.ID(c)
	if err != nil {
		return err
	}

	if id != self {
		if err := s.deps.Evaluator.Authorize(c.UserContext(), auth.Require(auth.PermViewUser)); err != nil {
			return err
		}
	}

	user, err := s.deps.Users.Get(c.UserContext(), id)
	if err != nil {
		return err
	}

	return response.OK(c, handler.NewUserView(user))
}

// Create adds a user with an initial permission set.
func (s *Service) Create(c *fiber.Ctx) error {
	actor, err := current.UserID(c)
	if err != nil {
		return err
	}

	var in auth.CreateInput
	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	user, err := s.deps.Users.Create(c.UserContext(), actor, in)
	if err != nil {
		return err
	}

	return response.Created(c, handler.NewUserView(user), "user created")
}

// Approve approves a registered user.
func (s *Service) Approve(c *fiber.Ctx) error {
	actor, id, err := actorAndTarget(c)
	if err != nil {
		return err
	}

	user, err := s.deps.Users.Approve(c.UserContext(), actor, id)
	if err != nil {
		return err
	}

	return response.Message(c, handler.NewUserView(user), "user approved")
}

// UpdatePermissions replaces the permission set of a user.
func (s *Service) UpdatePermissions(c *fiber.Ctx) error {
	actor, id, err := actorAndTarget(c)
	if err != nil {
		return err
	}

	var in PermissionsInput
	if err := handler.Bind(c, &in); err != nil {
		return err
	}

	user, err := s.deps.Users.UpdatePermissions(c.UserContext(), actor, id, in.Permissions)
	if err != nil {
		return err
	}

	return response.Message(c, handler.NewUserView(user), "permissions updated")
}

// ResetPassword assigns a temporary password and returns it once.
func (s *Service) ResetPassword(c *fiber.Ctx) error {
	actor, id, err := actorAndTarget(c)
	if err != nil {
		return err
	}

	temporary, err := s.deps.Users.ResetPassword(c.UserContext(), actor, id)
	if err != nil {
		return err
	}

	return response.Message(c, PasswordView{TemporaryPassword: temporary}, "password reset")
}

// Delete soft deletes a user.
func (s *Service) Delete(c *fiber.Ctx) error {
	actor, id, err := actorAndTarget(c)
	if err != nil {
		return err
	}

	user, err := s.deps.Users.Delete(c.UserContext(), actor, id)
	if err != nil {
		return err
	}

	return response.Message(c, handler.NewUserView(user), "user deleted")
}

func actorAndTarget(c *fiber.Ctx) (actor, target models.ID, err error) {
	if actor, err = current.UserID(c); err != nil {
		return actor, target, err
	}

	target, err = handler.ID(c)

	return actor, target, err
}
