// Package dbtest provides migrated in-memory databases for tests.
package dbtest

import (
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/municipal-dp/digital-profile/internal/config"
	"github.com/municipal-dp/digital-profile/internal/db"
	"github.com/municipal-dp/digital-profile/internal/db/models"
)

// FastHashParams keep Argon2id cheap in tests.
var FastHashParams = &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

// New creates an in-memory SQLite database with the full schema. It is closed with the test.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	models.HashParams = FastHashParams

	gdb, err := db.Open(config.DB{Engine: config.EngineSQLite})
	require.NoError(t, err, "failed to create test database")

	require.NoError(t, db.Migrate(gdb), "failed to migrate test database")

	t.Cleanup(func() { _ = db.Close(gdb) })

	return gdb
}
