// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"strings"

	"github.com/municipal-dp/digital-profile/internal/config"
)

// Create builds the Data Source Name of the configured engine.
func Create(db config.DB) string {
	switch db.Engine {
	case config.EngineMySQL:
		return MySQL(db)
	case config.EnginePostgres:
		return Postgres(db)
	default:
		return SQLite(db)
	}
}

// MySQL builds a go-sql-driver DSN. parseTime is always enabled.
func MySQL(db config.DB) string {
	extras := "parseTime=true"
	if db.Extras != "" && !strings.Contains(db.Extras, "parseTime") {
		extras = db.Extras + "&" + extras
	} else if db.Extras != "" {
		extras = db.Extras
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
		extras,
	)
}

// Postgres builds a libpq keyword/value DSN.
func Postgres(db config.DB) string {
	out := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		db.Host,
		db.Port,
		db.User,
		db.Password,
		db.Name,
	)

	if db.Extras != "" {
		out += " " + db.Extras
	}

	return out
}

// SQLite returns the database file, ":memory:" when no name is set.
func SQLite(db config.DB) string {
	if db.Name == "" {
		return ":memory:"
	}

	if db.Extras != "" {
		return db.Name + "?" + db.Extras
	}

	return db.Name
}
