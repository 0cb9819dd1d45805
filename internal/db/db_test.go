package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/municipal-dp/digital-profile/internal/config"
	"github.com/municipal-dp/digital-profile/internal/db/models"
)

func TestDialector(t *testing.T) {
	testCases := []struct {
		engine  string
		name    string
		wantErr bool
	}{
		{config.EngineSQLite, "sqlite", false},
		{config.EngineMySQL, "mysql", false},
		{config.EnginePostgres, "postgres", false},
		{"oracle", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.engine, func(t *testing.T) {
			d, err := Dialector(config.DB{Engine: tc.engine})
			if tc.wantErr {
				require.ErrorIs(t, err, config.ErrUnknownEngine)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.name, d.Name())
		})
	}
}

func TestOpenAndMigrate(t *testing.T) {
	gdb, err := Open(config.DB{Engine: config.EngineSQLite})
	require.NoError(t, err)

	t.Cleanup(func() { _ = Close(gdb) })

	require.NoError(t, Migrate(gdb))

	for _, m := range Models() {
		assert.True(t, gdb.Migrator().HasTable(m))
	}

	assert.True(t, gdb.Migrator().HasTable("user_permissions"))

	user := models.NewUser("a@example.com", "hash", "A")
	require.NoError(t, gdb.Create(user).Error)

	var loaded models.User
	require.NoError(t, gdb.First(&loaded, "id = ?", user.ID).Error)
	assert.Equal(t, user.ID, loaded.ID)
}

func TestMigrateNil(t *testing.T) {
	require.ErrorIs(t, Migrate(nil), ErrDBNil)
}
