package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/municipal-dp/digital-profile/internal/apperror"
	"github.com/municipal-dp/digital-profile/internal/db/models"
	"github.com/municipal-dp/digital-profile/internal/uniuri"
)

// Reasons attached to InvalidUserState errors.
const (
	ReasonNotApproved     = "not_approved"
	ReasonDeleted         = "deleted"
	ReasonVersionConflict = "version_conflict"
)

const (
	whereID    = "id = ?"
	whereEmail = "email = ?"

	// TemporaryPasswordLen is the length of passwords generated by admin resets.
	TemporaryPasswordLen = 14
)

// RegisterInput is the self-registration request of a staff user.
type RegisterInput struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	FullName    string `json:"fullName" validate:"required,max=200"`
	IsWardLevel bool   `json:"isWardLevel"`
	WardNumber  *int   `json:"wardNumber" validate:"omitempty,min=1"`
}

// CreateInput is the admin creation request of a staff user.
type CreateInput struct {
	RegisterInput
	Permissions []string `json:"permissions" validate:"dive,required"`
	Approved    bool     `json:"approved"`
}

// ListFilter selects a page of users.
type ListFilter struct {
	Page           int
	Size           int
	Search         string
	IncludeDeleted bool
}

// Page is a slice of principals plus paging metadata.
type Page[T any] struct {
	Items []T
	Total int64
	Page  int
	Size  int
}

// UserStore implements the staff credential store.
type UserStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewUserStore creates a new staff credential store.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db, now: time.Now}
}

// NormalizeEmail canonicalises an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unapproved user without permissions.
func (s *UserStore) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	user, err := s.newUser(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, s.createError(err, user.Email)
	}

	log.Info().Str("user", user.Email).Msg("user registered")

	return user, nil
}

// Create creates a user on behalf of an admin with an initial permission set.
func (s *UserStore) Create(ctx context.Context, actor models.ID, in CreateInput) (*models.User, error) {
	if len(in.Permissions) == 0 {
		return nil, apperror.MissingPermissions()
	}

	types, err := ParsePermissionTypes(in.Permissions)
	if err != nil {
		return nil, err
	}

	user, err := s.newUser(ctx, in.RegisterInput)
	if err != nil {
		return nil, err
	}

	user.IsApproved = in.Approved
	user.CreatedBy = &actor
	user.UpdatedBy = &actor

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		perms, errFind := FindPermissions(ctx, tx, types)
		if errFind != nil {
			return errFind
		}

		user.Permissions = perms

		return tx.Create(user).Error
	})
	if err != nil {
		return nil, s.createError(err, user.Email)
	}

	log.Info().Str("user", user.Email).Str("actor", actor.String()).Msg("user created")

	return user, nil
}

func (s *UserStore) newUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := NormalizeEmail(in.Email)

	if in.IsWardLevel && in.WardNumber == nil {
		return nil, apperror.Validation(map[string]string{"wardNumber": "required for ward level users"})
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where(whereEmail, email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	if count > 0 {
		return nil, apperror.UserAlreadyExists(email)
	}

	hash, err := models.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.NewUser(email, hash, strings.TrimSpace(in.FullName))
	user.IsWardLevel = in.IsWardLevel

	if in.IsWardLevel {
		user.WardNumber = in.WardNumber
	}

	return user, nil
}

func (s *UserStore) createError(err error, email string) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.UserAlreadyExists(email)
	}

	return fmt.Errorf("failed to create user: %w", err)
}

// Get loads a user with its permissions.
func (s *UserStore) Get(ctx context.Context, id models.ID) (*models.User, error) {
	return s.find(ctx, s.db, whereID, id, "id")
}

// GetByEmail loads a user by login email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.find(ctx, s.db, whereEmail, NormalizeEmail(email), "email")
}

func (s *UserStore) find(ctx context.Context, db *gorm.DB, where string, key any, field string) (*models.User, error) {
	var user models.User

	err := db.WithContext(ctx).Preload("Permissions").Where(where, key).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.UserNotFound(field, fmt.Sprint(key))
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// List returns a page of users ordered by creation time.
func (s *UserStore) List(ctx context.Context, f ListFilter) (Page[models.User], error) {
	f.Page, f.Size = normalizePage(f.Page, f.Size)

	query := s.db.WithContext(ctx).Model(&models.User{})
	if !f.IncludeDeleted {
		query = query.Where("is_deleted = ?", false)
	}

	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return Page[models.User]{}, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	if err := query.Preload("Permissions").Order("created_at").
		Limit(f.Size).Offset((f.Page - 1) * f.Size).Find(&users).Error; err != nil {
		return Page[models.User]{}, fmt.Errorf("failed to list users: %w", err)
	}

	return Page[models.User]{Items: users, Total: total, Page: f.Page, Size: f.Size}, nil
}

// Authenticate checks credentials. Wrong email or password is Unauthenticated; a
// correct password on an unapproved or deleted account is InvalidUserState with 403.
func (s *UserStore) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if errors.Is(err, apperror.ErrUserNotFound) {
		// unknown emails take as long as wrong passwords
		models.VerifyPassword(password, dummyHash())
		return nil, apperror.Unauthenticated("invalid email or password")
	}

	if err != nil {
		return nil, err
	}

	if !models.VerifyPassword(password, user.Password) {
		return nil, apperror.Unauthenticated("invalid email or password")
	}

	if user.IsDeleted {
		return nil, apperror.InvalidUserState(user.ID, ReasonDeleted).WithStatus(http.StatusForbidden)
	}

	if !user.IsApproved {
		return nil, apperror.InvalidUserState(user.ID, ReasonNotApproved).WithStatus(http.StatusForbidden)
	}

	return user, nil
}

// Approve moves an unapproved user to approved.
func (s *UserStore) Approve(ctx context.Context, actor, id models.ID) (*models.User, error) {
	return s.mutate(ctx, actor, id, func(_ *gorm.DB, u *models.User) (map[string]any, error) {
		if u.IsDeleted {
			return nil, apperror.InvalidUserState(u.ID, ReasonDeleted)
		}

		if u.IsApproved {
			return nil, apperror.UserAlreadyApproved(u.ID)
		}

		u.IsApproved = true

		return map[string]any{"is_approved": true}, nil
	})
}

// Delete soft deletes a user.
func (s *UserStore) Delete(ctx context.Context, actor, id models.ID) (*models.User, error) {
	return s.mutate(ctx, actor, id, func(_ *gorm.DB, u *models.User) (map[string]any, error) {
		if u.IsDeleted {
			return nil, apperror.UserAlreadyDeleted(u.ID)
		}

		now := s.now()
		u.IsDeleted = true
		u.DeletedAt = &now

		return map[string]any{"is_deleted": true, "deleted_at": now}, nil
	})
}

// UpdatePermissions replaces the user's permission set with names.
func (s *UserStore) UpdatePermissions(ctx context.Context, actor, id models.ID, names []string) (*models.User, error) {
	if len(names) == 0 {
		return nil, apperror.MissingPermissions()
	}

	types, err := ParsePermissionTypes(names)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, actor, id, func(tx *gorm.DB, u *models.User) (map[string]any, error) {
		if u.IsDeleted {
			return nil, apperror.InvalidUserState(u.ID, ReasonDeleted)
		}

		perms, errFind := FindPermissions(ctx, tx, types)
		if errFind != nil {
			return nil, errFind
		}

		if errReplace := tx.Model(u).Association("Permissions").Replace(perms); errReplace != nil {
			return nil, fmt.Errorf("failed to replace permissions: %w", errReplace)
		}

		u.Permissions = perms

		return map[string]any{}, nil
	})
}

// ResetPassword assigns a generated temporary password and returns it. The plaintext is
// not stored anywhere.
func (s *UserStore) ResetPassword(ctx context.Context, actor, id models.ID) (string, error) {
	temporary := uniuri.Password(TemporaryPasswordLen)

	hash, err := models.HashPassword(temporary)
	if err != nil {
		return "", err
	}

	_, err = s.mutate(ctx, actor, id, func(_ *gorm.DB, u *models.User) (map[string]any, error) {
		if u.IsDeleted {
			return nil, apperror.InvalidUserState(u.ID, ReasonDeleted)
		}

		u.Password = hash

		return map[string]any{"password": hash}, nil
	})
	if err != nil {
		return "", err
	}

	return temporary, nil
}

// SetPasswordTx updates the password hash of the user with email inside tx.
// It backs the staff password reset flow.
func (s *UserStore) SetPasswordTx(tx *gorm.DB, email, hash string) error {
	res := tx.Model(&models.User{}).
		Where("email = ? AND is_deleted = ?", NormalizeEmail(email), false).
		Updates(map[string]any{"password": hash, "version": gorm.Expr("version + 1"), "updated_at": s.now()})
	if res.Error != nil {
		return fmt.Errorf("failed to update password: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return apperror.UserNotFound("email", email)
	}

	return nil
}

// Exists reports whether an active user with email exists.
func (s *UserStore) Exists(ctx context.Context, email string) (bool, error) {
	var count int64

	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? AND is_deleted = ?", NormalizeEmail(email), false).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}

	return count > 0, nil
}

type mutation func(tx *gorm.DB, u *models.User) (map[string]any, error)

// mutate loads the user, applies fn and persists the returned column updates guarded by the
// version read. A concurrent change makes the guarded update miss and yields InvalidUserState.
func (s *UserStore) mutate(ctx context.Context, actor, id models.ID, fn mutation) (*models.User, error) {
	var user *models.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var errFind error

		user, errFind = s.find(ctx, tx, whereID, id, "id")
		if errFind != nil {
			return errFind
		}

		updates, errFn := fn(tx, user)
		if errFn != nil {
			return errFn
		}

		now := s.now()
		updates["version"] = user.Version + 1
		updates["updated_by"] = actor
		updates["updated_at"] = now

		res := tx.Model(&models.User{}).Where("id = ? AND version = ?", user.ID, user.Version).Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update user: %w", res.Error)
		}

		if res.RowsAffected != 1 {
			return apperror.InvalidUserState(user.ID, ReasonVersionConflict)
		}

		user.Version++
		user.UpdatedBy = &actor
		user.UpdatedAt = now

		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

var dummyHash = sync.OnceValue(func() string {
	hash, err := models.HashPassword(uniuri.New())
	if err != nil {
		log.Error().Err(err).Msg("failed to create dummy hash")
	}

	return hash
})

func normalizePage(page, size int) (int, int) {
	const (
		defaultSize = 20
		maxSize     = 100
	)

	if page < 1 {
		page = 1
	}

	if size < 1 {
		size = defaultSize
	}

	if size > maxSize {
		size = maxSize
	}

	return page, size
}
