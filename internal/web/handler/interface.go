package handler

import (
	"github.com/municipal-dp/digital-profile/internal/auth"
	"github.com/municipal-dp/digital-profile/internal/config"
	"github.com/municipal-dp/digital-profile/internal/passwordreset"
	"github.com/municipal-dp/digital-profile/internal/route"
	"github.com/municipal-dp/digital-profile/internal/token"
)

// Deps are the collaborators shared by the handlers.
type Deps struct {
	Cfg           *config.Config
	Users         *auth.UserStore
	Citizens      *auth.CitizenStore
	Evaluator     *auth.Evaluator
	StaffTokens   *token.StaffService
	CitizenTokens *token.CitizenService
	StaffReset    *passwordreset.Flow
	CitizenReset  *passwordreset.Flow
}

// Valid reports whether every collaborator is set.
func (d *Deps) Valid() bool {
	return d != nil && d.Cfg != nil && d.Users != nil && d.Citizens != nil && d.Evaluator != nil &&
		d.StaffTokens != nil && d.CitizenTokens != nil && d.StaffReset != nil && d.CitizenReset != nil
}

// Service is the interface for a web handler service. Init registers its routes on b.
type Service interface {
	Init(b *route.Binder, deps *Deps) error
}
