package config

import (
	"time"

	"github.com/municipal-dp/digital-profile/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode       bool          `json:"devMode" toml:"devMode" mapstructure:"devMode"` // exposes reset codes in logs
	Title         string        `json:"title" toml:"title" mapstructure:"title"`
	DB            DB            `json:"db" toml:"db" mapstructure:"db"`
	Log           logger.Log    `json:"log" toml:"log" mapstructure:"log"`
	Webserver     Webserver     `json:"webserver" toml:"webserver" mapstructure:"webserver"`
	JWT           JWT           `json:"jwt" toml:"jwt" mapstructure:"jwt"`
	Blacklist     Blacklist     `json:"blacklist" toml:"blacklist" mapstructure:"blacklist"`
	PasswordReset PasswordReset `json:"passwordReset" toml:"passwordReset" mapstructure:"passwordReset"`
	Seed          Seed          `json:"seed" toml:"seed" mapstructure:"seed"`
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool   `json:"disableRecover" toml:"disableRecover" mapstructure:"disableRecover"`
	Domain         string `json:"domain" toml:"domain" mapstructure:"domain"`
	Port           int    `json:"port" toml:"port" mapstructure:"port"`
	ShutDownTime   int    `json:"shutDownTime" toml:"shutDownTime" mapstructure:"shutDownTime"` // seconds
	URL            string `json:"url" toml:"url" mapstructure:"url"`
	// AllowOrigins is the comma separated CORS origin list, defaults to URL.
	AllowOrigins string `json:"allowOrigins" toml:"allowOrigins" mapstructure:"allowOrigins"`
	BodyLimit    int    `json:"bodyLimit" toml:"bodyLimit" mapstructure:"bodyLimit"` // bytes
}

// Token configures one token service instance.
type Token struct {
	Secret     string        `json:"secret" toml:"secret" mapstructure:"secret"`
	Issuer     string        `json:"issuer" toml:"issuer" mapstructure:"issuer"`
	Audience   string        `json:"audience" toml:"audience" mapstructure:"audience"`
	AccessTTL  time.Duration `json:"accessTTL" toml:"accessTTL" mapstructure:"accessTTL"`
	RefreshTTL time.Duration `json:"refreshTTL" toml:"refreshTTL" mapstructure:"refreshTTL"`
}

// JWT holds the staff and citizen token settings.
type JWT struct {
	Staff   Token `json:"staff" toml:"staff" mapstructure:"staff"`
	Citizen Token `json:"citizen" toml:"citizen" mapstructure:"citizen"`
}

// Blacklist backends.
const (
	BlacklistMemory   = "memory"
	BlacklistDB       = "db"
	BlacklistMySQL    = "mysql"
	BlacklistPostgres = "postgres"
)

// Blacklist configures the store of invalidated tokens.
type Blacklist struct {
	Backend    string        `json:"backend" toml:"backend" mapstructure:"backend"` // memory, db, mysql, postgres
	Table      string        `json:"table" toml:"table" mapstructure:"table"`       // mysql and postgres backends
	GCInterval time.Duration `json:"gcInterval" toml:"gcInterval" mapstructure:"gcInterval"`
}

// PasswordReset configures one-time reset codes.
type PasswordReset struct {
	OtpTTL time.Duration `json:"otpTTL" toml:"otpTTL" mapstructure:"otpTTL"`
	Digits int           `json:"digits" toml:"digits" mapstructure:"digits"` // 6 or 8
}

// Seed configures the initial admin account created on an empty user table.
type Seed struct {
	AdminEmail    string `json:"adminEmail" toml:"adminEmail" mapstructure:"adminEmail"`
	AdminPassword string `json:"adminPassword" toml:"adminPassword" mapstructure:"adminPassword"`
	AdminName     string `json:"adminName" toml:"adminName" mapstructure:"adminName"`
}
