package auth

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/municipal-dp/digital-profile/internal/apperror"
	"github.com/municipal-dp/digital-profile/internal/db/models"
)

// PermissionType is a fine-grained staff permission.
type PermissionType int

// Permission types. The zero value is invalid.
const (
	// PermCreateUser allows creating staff users.
	PermCreateUser PermissionType = iota + 1
	// PermApproveUser allows approving registered staff users.
	PermApproveUser
	// PermEditUser allows changing a user's permission set.
	PermEditUser
	// PermDeleteUser allows soft deleting staff users.
	PermDeleteUser
	// PermViewUser allows listing and viewing staff users.
	PermViewUser
	// PermResetUserPassword allows resetting another user's password.
	PermResetUserPassword
	// PermApproveCitizen allows approving citizen accounts.
	PermApproveCitizen
	// PermViewCitizen allows listing citizen accounts.
	PermViewCitizen
	// PermDeleteCitizen allows soft deleting citizen accounts.
	PermDeleteCitizen
)

// AuthorityPrefix marks permission authorities inside tokens.
const AuthorityPrefix = "PERMISSION_"

type permissionInfo struct {
	name        string
	description string
}

var permissionTable = map[PermissionType]permissionInfo{
	PermCreateUser:        {"CREATE_USER", "Create staff users"},
	PermApproveUser:       {"APPROVE_USER", "Approve registered staff users"},
	PermEditUser:          {"EDIT_USER", "Edit staff user permissions"},
	PermDeleteUser:        {"DELETE_USER", "Delete staff users"},
	PermViewUser:          {"VIEW_USER", "View staff users"},
	PermResetUserPassword: {"RESET_USER_PASSWORD", "Reset staff user passwords"},
	PermApproveCitizen:    {"APPROVE_CITIZEN", "Approve citizen accounts"},
	PermViewCitizen:       {"VIEW_CITIZEN", "View citizen accounts"},
	PermDeleteCitizen:     {"DELETE_CITIZEN", "Delete citizen accounts"},
}

var permissionByName = func() map[string]PermissionType {
	out := make(map[string]PermissionType, len(permissionTable))
	for p, info := range permissionTable {
		out[info.name] = p
	}

	return out
}()

// AllPermissions returns every permission type in declaration order.
func AllPermissions() []PermissionType {
	out := make([]PermissionType, 0, len(permissionTable))
	for p := PermCreateUser; p <= PermDeleteCitizen; p++ {
		out = append(out, p)
	}

	return out
}

// String returns the enum name, e.g. "VIEW_USER".
func (p PermissionType) String() string {
	if info, ok := permissionTable[p]; ok {
		return info.name
	}

	return fmt.Sprintf("PermissionType(%d)", int(p))
}

// Authority returns the authority string carried by tokens, e.g. "PERMISSION_VIEW_USER".
func (p PermissionType) Authority() string {
	return AuthorityPrefix + p.String()
}

// Description returns a human readable description.
func (p PermissionType) Description() string {
	return permissionTable[p].description
}

// Valid reports whether p is a declared permission type.
func (p PermissionType) Valid() bool {
	_, ok := permissionTable[p]
	return ok
}

// MarshalText encodes the permission by name.
func (p PermissionType) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, apperror.PermissionNotFound(p.String())
	}

	return []byte(p.String()), nil
}

// UnmarshalText decodes a permission name.
func (p *PermissionType) UnmarshalText(b []byte) error {
	parsed, err := ParsePermissionType(string(b))
	if err != nil {
		return err
	}

	*p = parsed

	return nil
}

// ParsePermissionType decodes an enum name. Unknown names yield a PermissionNotFound error.
func ParsePermissionType(name string) (PermissionType, error) {
	p, ok := permissionByName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, apperror.PermissionNotFound(name)
	}

	return p, nil
}

// ParseAuthority decodes an authority string such as "PERMISSION_VIEW_USER".
func ParseAuthority(authority string) (PermissionType, error) {
	name, ok := strings.CutPrefix(authority, AuthorityPrefix)
	if !ok {
		return 0, apperror.PermissionNotFound(authority)
	}

	return ParsePermissionType(name)
}

// ParsePermissionTypes decodes a list of names, failing on the first unknown one.
func ParsePermissionTypes(names []string) ([]PermissionType, error) {
	out := make([]PermissionType, 0, len(names))
	for _, n := range names {
		p, err := ParsePermissionType(n)
		if err != nil {
			return nil, err
		}

		out = append(out, p)
	}

	return out, nil
}

// Authorities converts permission rows to authority strings.
func Authorities(perms []models.Permission) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, AuthorityPrefix+p.Type)
	}

	return out
}

// SeedPermissions makes sure one row exists for every permission type. It is idempotent.
func SeedPermissions(ctx context.Context, db *gorm.DB) error {
	rows := make([]models.Permission, 0, len(permissionTable))
	for _, p := range AllPermissions() {
		rows = append(rows, models.Permission{Type: p.String(), Description: p.Description()})
	}

	err := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "type"}}, DoNothing: true}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to seed permissions: %w", err)
	}

	return nil
}

// FindPermissions loads the rows of the given types. A type without a row yields PermissionNotFound.
func FindPermissions(ctx context.Context, db *gorm.DB, types []PermissionType) ([]models.Permission, error) {
	names := make([]string, 0, len(types))
	seen := make(map[PermissionType]struct{}, len(types))

	for _, t := range types {
		if _, dup := seen[t]; dup {
			continue
		}

		seen[t] = struct{}{}
		names = append(names, t.String())
	}

	var rows []models.Permission
	if err := db.WithContext(ctx).Where("type IN ?", names).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load permissions: %w", err)
	}

	if len(rows) != len(names) {
		found := make(map[string]struct{}, len(rows))
		for _, r := range rows {
			found[r.Type] = struct{}{}
		}

		for _, n := range names {
			if _, ok := found[n]; !ok {
				return nil, apperror.PermissionNotFound(n)
			}
		}
	}

	return rows, nil
}
