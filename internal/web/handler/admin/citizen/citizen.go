// Package citizen provides the citizen administration endpoints for staff.
package citizen

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/municipal-dp/digital-profile/internal/auth"
	"github.com/municipal-dp/digital-profile/internal/route"
	"github.com/municipal-dp/digital-profile/internal/web/current"
	"github.com/municipal-dp/digital-profile/internal/web/handler"
	"github.com/municipal-dp/digital-profile/internal/web/response"
)

const (
	// Path is the base path for citizen management.
	Path = handler.APIPrefix + "/citizens"

	pathID = "/:" + handler.ParamID
)

// Service provides the citizen administration endpoints.
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
		g.Protected(http.MethodGet, handler.RootPath, auth.RequirePermission(e, auth.PermViewCitizen), s.List),
		g.Protected(http.MethodGet, pathID, auth.RequirePermission(e, auth.PermViewCitizen), s.Get),
		g.Protected(http.MethodPut, pathID+"/approve", auth.RequirePermission(e, auth.PermApproveCitizen), s.Approve),
		g.Protected(http.MethodDelete, pathID, auth.RequirePermission(e, auth.PermDeleteCitizen), s.Delete),
	)
}

// List returns a page of citizens.
func (s *Service) List(c *fiber.Ctx) error {
	page, err := s.deps.Citizens.List(c.UserContext(), handler.ListFilter(c))
	if err != nil {
		return err
	}

	return response.Paged(c, handler.NewCitizenViews(page.Items), response.NewPageMeta(page.Page, page.Size, page.Total))
}

// Get returns one citizen.
func (s *Service) Get(c *fiber.Ctx) error {
	id, err := handler.ID(c)
	if err != nil {
		return err
	}

	citizen, err := s.deps.Citizens.Get(c.UserContext(), id)
	if err != nil {
		return err
	}

	return response.OK(c, handler.NewCitizenView(citizen))
}

// Approve approves a registered citizen.
func (s *Service) Approve(c *fiber.Ctx) error {
	actor, err := current.UserID(c)
	if err != nil {
		return err
	}

	id, err := handler.ID(c)
	if err != nil {
		return err
	}

	citizen, err := s.deps.Citizens.Approve(c.UserContext(), actor, id)
	if err != nil {
		return err
	}

	return response.Message(c, handler.NewCitizenView(citizen), "citizen approved")
}

// Delete soft deletes a citizen.
func (s *Service) Delete(c *fiber.Ctx) error {
	actor, err := current.UserID(c)
	if err != nil {
		return err
	}

	id, err := handler.ID(c)
	if err != nil {
		return err
	}

	citizen, err := s.deps.Citizens.Delete(c.UserContext(), actor, id)
	if err != nil {
		return err
	}

	return response.Message(c, handler.NewCitizenView(citizen), "citizen deleted")
}
