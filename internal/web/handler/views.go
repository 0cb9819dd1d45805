package handler

import (
	"time"

	"github.com/municipal-dp/digital-profile/internal/db/models"
)

// UserView is the public representation of a staff user.
type UserView struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"fullName"`
	IsApproved  bool       `json:"isApproved"`
	IsDeleted   bool       `json:"isDeleted"`
	IsWardLevel bool       `json:"isWardLevel"`
	WardNumber  *int       `json:"wardNumber"`
	Permissions []string   `json:"permissions"`
	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

// NewUserView converts a user without its password hash.
func NewUserView(u *models.User) UserView {
	return UserView{
		ID:          u.ID.String(),
		Email:       u.Email,
		FullName:    u.FullName,
		IsApproved:  u.IsApproved,
		IsDeleted:   u.IsDeleted,
		IsWardLevel: u.IsWardLevel,
		WardNumber:  u.WardNumber,
		Permissions: u.PermissionTypes(),
		Version:     u.Version,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		DeletedAt:   u.DeletedAt,
	}
}

// NewUserViews converts a list of users.
func NewUserViews(users []models.User) []UserView {
	out := make([]UserView, 0, len(users))
	for i := range users {
		out = append(out, NewUserView(&users[i]))
	}

	return out
}

// CitizenView is the public representation of a citizen.
type CitizenView struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	FullName   string     `json:"fullName"`
	IsApproved bool       `json:"isApproved"`
	IsDeleted  bool       `json:"isDeleted"`
	WardNumber *int       `json:"wardNumber"`
	Version    int64      `json:"version"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
}

// NewCitizenView converts a citizen without its password hash.
func NewCitizenView(c *models.Citizen) CitizenView {
	return CitizenView{
		ID:         c.ID.String(),
		Email:      c.Email,
		FullName:   c.FullName,
		IsApproved: c.IsApproved,
		IsDeleted:  c.IsDeleted,
		WardNumber: c.WardNumber,
		Version:    c.Version,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
		DeletedAt:  c.DeletedAt,
	}
}

// NewCitizenViews converts a list of citizens.
func NewCitizenViews(citizens []models.Citizen) []CitizenView {
	out := make([]CitizenView, 0, len(citizens))
	for i := range citizens {
		out = append(out, NewCitizenView(&citizens[i]))
	}

	return out
}
