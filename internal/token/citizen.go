package token

import (
	"fmt"

	"github.com/municipal-dp/digital-profile/internal/auth"
	"github.com/municipal-dp/digital-profile/internal/db/models"
)

// CitizenClaimID is the custom claim carrying the citizen's ID.
const CitizenClaimID = "citizenId"

// CitizenClaims are the claims of citizen tokens.
type CitizenClaims struct {
	CitizenID string `json:"citizenId,omitempty"`
	Ward      *int   `json:"ward,omitempty"`
	Base
}

// CitizenUUID parses the citizenId claim.
func (c *CitizenClaims) CitizenUUID() (models.ID, error) {
	if c.CitizenID == "" {
		return models.NilID, fmt.Errorf("%w: %s", ErrMissingClaim, CitizenClaimID)
	}

	id, err := models.ParseID(c.CitizenID)
	if err != nil {
		return models.NilID, fmt.Errorf("%w: %s: %w", ErrMissingClaim, CitizenClaimID, err)
	}

	return id, nil
}

// Principal converts verified claims into the request principal. Citizens hold no authorities.
func (c *CitizenClaims) Principal() (*auth.Principal, error) {
	id, err := c.CitizenUUID()
	if err != nil {
		return nil, err
	}

	return &auth.Principal{
		ID:         id,
		Email:      c.Subject,
		Kind:       auth.KindCitizen,
		WardNumber: c.Ward,
	}, nil
}

type citizenShape struct{}

func (citizenShape) Empty() *CitizenClaims {
	return &CitizenClaims{}
}

// Fill leaves citizenId out for citizens without an ID.
func (citizenShape) Fill(c *models.Citizen) *CitizenClaims {
	claims := &CitizenClaims{Ward: c.WardNumber}
	if !c.ID.IsZero() {
		claims.CitizenID = c.ID.String()
	}

	return claims
}

// CitizenService issues tokens for citizens.
type CitizenService = Service[*models.Citizen, *CitizenClaims]

// NewCitizenService creates the citizen token service.
func NewCitizenService(cfg Config, bl Blacklist, opts ...Option) (*CitizenService, error) {
	if cfg.Name == "" {
		cfg.Name = "citizen"
	}

	return New[*models.Citizen, *CitizenClaims](cfg, citizenShape{}, bl, opts...)
}
