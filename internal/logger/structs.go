package logger

// Console configures logging to stdout and stderr.
type Console struct {
	Enabled bool `json:"enabled" toml:"enabled" mapstructure:"enabled"`
	// Pretty switches from JSON lines to zerolog's human readable console format.
	Pretty bool `json:"pretty" toml:"pretty" mapstructure:"pretty"`
}

// Rotation configures one rolling log file.
type Rotation struct {
	Name       string `json:"name" toml:"name" mapstructure:"name"`
	MaxSize    int    `json:"maxSize" toml:"maxSize" mapstructure:"maxSize"` // megabytes
	MaxBackups int    `json:"maxBackups" toml:"maxBackups" mapstructure:"maxBackups"`
	MaxAge     int    `json:"maxAge" toml:"maxAge" mapstructure:"maxAge"` // days
	Compress   bool   `json:"compress" toml:"compress" mapstructure:"compress"`
}

// File configures file based logging split by level.
type File struct {
	Enabled bool   `json:"enabled" toml:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" toml:"path" mapstructure:"path"`

	Access Rotation `json:"access" toml:"access" mapstructure:"access"`
	Error  Rotation `json:"error" toml:"error" mapstructure:"error"`
	Warn   Rotation `json:"warn" toml:"warn" mapstructure:"warn"`
	Info   Rotation `json:"info" toml:"info" mapstructure:"info"`
	Trace  Rotation `json:"trace" toml:"trace" mapstructure:"trace"`
}

// Log implements the logger config.
type Log struct {
	Level string `json:"level" toml:"level" mapstructure:"level"` // trace, debug, info, warn, error
	Env   string `json:"env" toml:"env" mapstructure:"env"`

	// AccessLogToConsole mirrors the access log to stdout. Console.Enabled must be set as well.
	AccessLogToConsole bool `json:"accessLogToConsole" toml:"accessLogToConsole" mapstructure:"accessLogToConsole"`
	ReportCaller       bool `json:"reportCaller" toml:"reportCaller" mapstructure:"reportCaller"`
	// SkipPaths are request paths left out of the access log, e.g. /checkalive.
	SkipPaths []string `json:"skipPaths" toml:"skipPaths" mapstructure:"skipPaths"`

	AppName     string `json:"appName" toml:"appName" mapstructure:"appName"`
	ServiceName string `json:"serviceName" toml:"serviceName" mapstructure:"serviceName"`

	Console Console `json:"console" toml:"console" mapstructure:"console"`
	File    File    `json:"file" toml:"file" mapstructure:"file"`
}
