package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/municipal-dp/digital-profile/internal/apperror"
	"github.com/municipal-dp/digital-profile/internal/db/dbtest"
	"github.com/municipal-dp/digital-profile/internal/db/models"
)

func TestPermissionNames(t *testing.T) {
	for _, p := range AllPermissions() {
		parsed, err := ParsePermissionType(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)

		fromAuthority, err := ParseAuthority(p.Authority())
		require.NoError(t, err)
		assert.Equal(t, p, fromAuthority)

		assert.NotEmpty(t, p.Description())
	}

	assert.Equal(t, "PERMISSION_VIEW_USER", PermViewUser.Authority())
	assert.Len(t, AllPermissions(), len(permissionTable))
}

func TestParsePermissionTypeUnknown(t *testing.T) {
	testCases := []string{"", "VIEW_EVERYTHING", "PERMISSION_VIEW_USER"}

	for _, name := range testCases {
		_, err := ParsePermissionType(name)
		require.ErrorIs(t, err, apperror.ErrPermissionNotFound, name)
	}

	_, err := ParseAuthority("VIEW_USER")
	require.ErrorIs(t, err, apperror.ErrPermissionNotFound)

	_, err = ParsePermissionTypes([]string{"VIEW_USER", "NOPE"})
	require.ErrorIs(t, err, apperror.ErrPermissionNotFound)

	assert.False(t, PermissionType(0).Valid())
	_, err = PermissionType(0).MarshalText()
	require.Error(t, err)
}

func TestParsePermissionTypeIsLenient(t *testing.T) {
	p, err := ParsePermissionType(" view_user ")
	require.NoError(t, err)
	assert.Equal(t, PermViewUser, p)
}

func TestPermissionTextRoundTrip(t *testing.T) {
	b, err := PermEditUser.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "EDIT_USER", string(b))

	var p PermissionType
	require.NoError(t, p.UnmarshalText(b))
	assert.Equal(t, PermEditUser, p)
}

func TestSeedPermissionsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)

	require.NoError(t, SeedPermissions(ctx, gdb))
	require.NoError(t, SeedPermissions(ctx, gdb))

	var count int64
	require.NoError(t, gdb.Model(&models.Permission{}).Count(&count).Error)
	assert.Equal(t, int64(len(AllPermissions())), count)
}

func TestFindPermissions(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)
	require.NoError(t, SeedPermissions(ctx, gdb))

	perms, err := FindPermissions(ctx, gdb, []PermissionType{PermViewUser, PermEditUser, PermViewUser})
	require.NoError(t, err)
	assert.Len(t, perms, 2)
	assert.ElementsMatch(t, []string{"PERMISSION_VIEW_USER", "PERMISSION_EDIT_USER"}, Authorities(perms))

	require.NoError(t, gdb.Where("type = ?", "DELETE_USER").Delete(&models.Permission{}).Error)

	_, err = FindPermissions(ctx, gdb, []PermissionType{PermDeleteUser})
	require.ErrorIs(t, err, apperror.ErrPermissionNotFound)
}
