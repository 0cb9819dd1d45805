package daemon

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/municipal-dp/digital-profile/internal/auth"
	"github.com/municipal-dp/digital-profile/internal/config"
	"github.com/municipal-dp/digital-profile/internal/db/models"
)

// seedAdmin creates an approved admin holding every permission when the user table is empty.
func seedAdmin(ctx context.Context, gdb *gorm.DB, users *auth.UserStore, seed config.Seed) error {
	if seed.AdminEmail == "" {
		return nil
	}

	var count int64
	if err := gdb.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}

	if count > 0 {
		return nil
	}

	all := auth.AllPermissions()

	names := make([]string, 0, len(all))
	for _, p := range all {
		names = append(names, p.String())
	}

	name := seed.AdminName
	if name == "" {
		name = "Administrator"
	}

	admin, err := users.Create(ctx, models.NilID, auth.CreateInput{
		RegisterInput: auth.RegisterInput{Email: seed.AdminEmail, Password: seed.AdminPassword, FullName: name},
		Permissions:   names,
		Approved:      true,
	})
	if err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	log.Warn().Str("user", admin.Email).Msg("seeded initial admin user, change its password")

	return nil
}
