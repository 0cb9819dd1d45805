package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/municipal-dp/digital-profile/internal/apperror"
	"github.com/municipal-dp/digital-profile/internal/db/models"
)

const citizenPrincipal = "citizen"

// CitizenRegisterInput is the self-registration request of a citizen.
type CitizenRegisterInput struct {
	Email      string `json:"email" validate:"required,email,max=255"`
	Password   string `json:"password" validate:"required,min=8,max=128"`
	FullName   string `json:"fullName" validate:"required,max=200"`
	WardNumber *int   `json:"wardNumber" validate:"omitempty,min=1"`
}

// CitizenStore implements the citizen credential store.
type CitizenStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCitizenStore creates a new citizen credential store.
func NewCitizenStore(db *gorm.DB) *CitizenStore {
	return &CitizenStore{db: db, now: time.Now}
}

func citizenErr(err *apperror.Error) *apperror.Error {
	return err.With("principal", citizenPrincipal)
}

// Register creates an unapproved citizen.
func (s *CitizenStore) Register(ctx context.Context, in CitizenRegisterInput) (*models.Citizen, error) {
	email := NormalizeEmail(in.Email)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Citizen{}).Where(whereEmail, email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing citizen: %w", err)
	}

	if count > 0 {
		return nil, citizenErr(apperror.UserAlreadyExists(email))
	}

	hash, err := models.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	citizen := models.NewCitizen(email, hash, strings.TrimSpace(in.FullName))
	citizen.WardNumber = in.WardNumber

	if err := s.db.WithContext(ctx).Create(citizen).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, citizenErr(apperror.UserAlreadyExists(email))
		}

		return nil, fmt.Errorf("failed to create citizen: %w", err)
	}

	log.Info().Str("citizen", citizen.Email).Msg("citizen registered")

	return citizen, nil
}

// Get loads a citizen by ID.
func (s *CitizenStore) Get(ctx context.Context, id models.ID) (*models.Citizen, error) {
	return s.find(ctx, s.db, whereID, id, "id")
}

// GetByEmail loads a citizen by login email.
func (s *CitizenStore) GetByEmail(ctx context.Context, email string) (*models.Citizen, error) {
	return s.find(ctx, s.db, whereEmail, NormalizeEmail(email), "email")
}

func (s *CitizenStore) find(ctx context.Context, db *gorm.DB, where string, key any, field string) (*models.Citizen, error) {
	var citizen models.Citizen

	err := db.WithContext(ctx).Where(where, key).First(&citizen).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, citizenErr(apperror.UserNotFound(field, fmt.Sprint(key)))
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query citizen: %w", err)
	}

	return &citizen, nil
}

// List returns a page of citizens ordered by creation time.
func (s *CitizenStore) List(ctx context.Context, f ListFilter) (Page[models.Citizen], error) {
	f.Page, f.Size = normalizePage(f.Page, f.Size)

	query := s.db.WithContext(ctx).Model(&models.Citizen{})
	if !f.IncludeDeleted {
		query = query.Where("is_deleted = ?", false)
	}

	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return Page[models.Citizen]{}, fmt.Errorf("failed to count citizens: %w", err)
	}

	var citizens []models.Citizen
	if err := query.Order("created_at").Limit(f.Size).Offset((f.Page - 1) * f.Size).Find(&citizens).Error; err != nil {
		return Page[models.Citizen]{}, fmt.Errorf("failed to list citizens: %w", err)
	}

	return Page[models.Citizen]{Items: citizens, Total: total, Page: f.Page, Size: f.Size}, nil
}

// Authenticate checks citizen credentials with the same outcomes as UserStore.Authenticate.
func (s *CitizenStore) Authenticate(ctx context.Context, email, password string) (*models.Citizen, error) {
	citizen, err := s.GetByEmail(ctx, email)
	if errors.Is(err, apperror.ErrUserNotFound) {
		models.VerifyPassword(password, dummyHash())
		return nil, apperror.Unauthenticated("invalid email or password")
	}

	if err != nil {
		return nil, err
	}

	if !models.VerifyPassword(password, citizen.Password) {
		return nil, apperror.Unauthenticated("invalid email or password")
	}

	if citizen.IsDeleted {
		return nil, citizenErr(apperror.InvalidUserState(citizen.ID, ReasonDeleted)).WithStatus(http.StatusForbidden)
	}

	if !citizen.IsApproved {
		return nil, citizenErr(apperror.InvalidUserState(citizen.ID, ReasonNotApproved)).WithStatus(http.StatusForbidden)
	}

	return citizen, nil
}

// Approve moves an unapproved citizen to approved.
func (s *CitizenStore) Approve(ctx context.Context, actor, id models.ID) (*models.Citizen, error) {
	return s.mutate(ctx, actor, id, func(c *models.Citizen) (map[string]any, error) {
		if c.IsDeleted {
			return nil, citizenErr(apperror.InvalidUserState(c.ID, ReasonDeleted))
		}

		if c.IsApproved {
			return nil, citizenErr(apperror.UserAlreadyApproved(c.ID))
		}

		c.IsApproved = true

		return map[string]any{"is_approved": true}, nil
	})
}

// Delete soft deletes a citizen.
func (s *CitizenStore) Delete(ctx context.Context, actor, id models.ID) (*models.Citizen, error) {
	return s.mutate(ctx, actor, id, func(c *models.Citizen) (map[string]any, error) {
		if c.IsDeleted {
			return nil, citizenErr(apperror.UserAlreadyDeleted(c.ID))
		}

		now := s.now()
		c.IsDeleted = true
		c.DeletedAt = &now

		return map[string]any{"is_deleted": true, "deleted_at": now}, nil
	})
}

// SetPasswordTx updates the password hash of the citizen with email inside tx.
func (s *CitizenStore) SetPasswordTx(tx *gorm.DB, email, hash string) error {
	res := tx.Model(&models.Citizen{}).
		Where("email = ? AND is_deleted = ?", NormalizeEmail(email), false).
		Updates(map[string]any{"password": hash, "version": gorm.Expr("version + 1"), "updated_at": s.now()})
	if res.Error != nil {
		return fmt.Errorf("failed to update password: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return citizenErr(apperror.UserNotFound("email", email))
	}

	return nil
}

// Exists reports whether an active citizen with email exists.
func (s *CitizenStore) Exists(ctx context.Context, email string) (bool, error) {
	var count int64

	err := s.db.WithContext(ctx).Model(&models.Citizen{}).
		Where("email = ? AND is_deleted = ?", NormalizeEmail(email), false).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check citizen: %w", err)
	}

	return count > 0, nil
}

func (s *CitizenStore) mutate(
	ctx context.Context,
	actor, id models.ID,
	fn func(c *models.Citizen) (map[string]any, error),
) (*models.Citizen, error) {
	var citizen *models.Citizen

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var errFind error

		citizen, errFind = s.find(ctx, tx, whereID, id, "id")
		if errFind != nil {
			return errFind
		}

		updates, errFn := fn(citizen)
		if errFn != nil {
			return errFn
		}

		now := s.now()
		updates["version"] = citizen.Version + 1
		updates["updated_by"] = actor
		updates["updated_at"] = now

		res := tx.Model(&models.Citizen{}).Where("id = ? AND version = ?", citizen.ID, citizen.Version).Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update citizen: %w", res.Error)
		}

		if res.RowsAffected != 1 {
			return citizenErr(apperror.InvalidUserState(citizen.ID, ReasonVersionConflict))
		}

		citizen.Version++
		citizen.UpdatedBy = &actor
		citizen.UpdatedAt = now

		return nil
	})
	if err != nil {
		return nil, err
	}

	return citizen, nil
}
