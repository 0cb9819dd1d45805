package config

// Database engines.
const (
	EngineSQLite   = "sqlite"
	EngineMySQL    = "mysql"
	EnginePostgres = "postgres"
)

// DB holds the database configuration settings.
type DB struct {
	Engine   string `json:"engine" toml:"engine" mapstructure:"engine"` // sqlite, mysql, postgres
	Host     string `json:"host" toml:"host" mapstructure:"host"`
	Port     int    `json:"port" toml:"port" mapstructure:"port"`
	User     string `json:"user" toml:"user" mapstructure:"user"`
	Password string `json:"password" toml:"password" mapstructure:"password"`
	Name     string `json:"name" toml:"name" mapstructure:"name"` // database name, file path for sqlite
	// Extras are appended verbatim: query parameters for mysql, key=value pairs for postgres.
	Extras       string `json:"extras" toml:"extras" mapstructure:"extras"`
	MaxOpenConns int    `json:"maxOpenConns" toml:"maxOpenConns" mapstructure:"maxOpenConns"`
	MaxIdleConns int    `json:"maxIdleConns" toml:"maxIdleConns" mapstructure:"maxIdleConns"`
	Debug        bool   `json:"debug" toml:"debug" mapstructure:"debug"` // log every statement
}
