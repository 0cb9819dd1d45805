package token

import (
	"fmt"

	"github.com/municipal-dp/digital-profile/internal/auth"
	"github.com/municipal-dp/digital-profile/internal/db/models"
)

// StaffClaims are the claims of staff tokens.
type StaffClaims struct {
	UserID      string   `json:"uid"`
	Authorities []string `json:"authorities"`
	Ward        *int     `json:"ward,omitempty"`
	Base
}

// Principal converts verified claims into the request principal.
func (c *StaffClaims) Principal() (*auth.Principal, error) {
	id, err := models.ParseID(c.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: uid", ErrMissingClaim)
	}

	return &auth.Principal{
		ID:          id,
		Email:       c.Subject,
		Kind:        auth.KindStaff,
		Authorities: c.Authorities,
		WardNumber:  c.Ward,
	}, nil
}

type staffShape struct{}

func (staffShape) Empty() *StaffClaims {
	return &StaffClaims{}
}

// Fill embeds the user's current authorities. Later permission changes do not affect
// tokens already issued.
func (staffShape) Fill(u *models.User) *StaffClaims {
	c := &StaffClaims{
		UserID:      u.ID.String(),
		Authorities: auth.Authorities(u.Permissions),
	}

	if u.IsWardLevel {
		c.Ward = u.WardNumber
	}

	return c
}

// StaffService issues tokens for staff users.
type StaffService = Service[*models.User, *StaffClaims]

// NewStaffService creates the staff token service.
func NewStaffService(cfg Config, bl Blacklist, opts ...Option) (*StaffService, error) {
	if cfg.Name == "" {
		cfg.Name = "staff"
	}

	return New[*models.User, *StaffClaims](cfg, staffShape{}, bl, opts...)
}
