// Package config handles input from etc/main.toml and the JSON environment override.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvConfigJSON holds a JSON document merged over the file configuration.
	EnvConfigJSON = "DIGITAL_PROFILE_CONFIG_JSON"

	// MinSecretLen is the minimum length of a HS256 signing secret.
	MinSecretLen = 32

	defaultShutDownTime = 5
)

// ReadConfig from path/main.toml, then apply the env override and validate.
func ReadConfig(path string) (Config, error) {
	var (
		c   Config
		err error
	)

	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(path, "main.toml"))
	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	if env := os.Getenv(EnvConfigJSON); env != "" {
		c, err = decodeAndMergeConfig(c, env)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("title", "Digital Profile")
	v.SetDefault("db.engine", EngineSQLite)
	v.SetDefault("db.name", "digital-profile.db")
	v.SetDefault("webserver.shutDownTime", defaultShutDownTime)
	v.SetDefault("webserver.bodyLimit", 1<<20)
	v.SetDefault("jwt.staff.issuer", "digital-profile")
	v.SetDefault("jwt.staff.audience", "digital-profile-staff")
	v.SetDefault("jwt.staff.accessTTL", 15*time.Minute)
	v.SetDefault("jwt.staff.refreshTTL", 7*24*time.Hour)
	v.SetDefault("jwt.citizen.issuer", "digital-profile")
	v.SetDefault("jwt.citizen.audience", "digital-profile-citizen")
	v.SetDefault("jwt.citizen.accessTTL", 30*time.Minute)
	v.SetDefault("jwt.citizen.refreshTTL", 30*24*time.Hour)
	v.SetDefault("blacklist.backend", BlacklistMemory)
	v.SetDefault("blacklist.table", "token_blacklist_kv")
	v.SetDefault("blacklist.gcInterval", 10*time.Minute)
	v.SetDefault("passwordReset.otpTTL", 10*time.Minute)
	v.SetDefault("passwordReset.digits", 6)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.appName", "digital-profile")
	v.SetDefault("log.serviceName", "auth")
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read config from env "+EnvConfigJSON)
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c Config) (string, error) {
	var buffer bytes.Buffer

	enc := toml.NewEncoder(&buffer)
	enc.SetIndentTables(true)

	if err := enc.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// Redacted returns a copy of c with secrets masked, for printing.
func Redacted(c Config) Config {
	const mask = "********"

	for _, s := range []*string{&c.DB.Password, &c.JWT.Staff.Secret, &c.JWT.Citizen.Secret, &c.Seed.AdminPassword} {
		if *s != "" {
			*s = mask
		}
	}

	return c
}

// validate checks the settings the service can not start without and fills derived defaults.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime <= 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Webserver.AllowOrigins == "" {
		c.Webserver.AllowOrigins = c.Webserver.URL
	}

	switch c.DB.Engine {
	case EngineSQLite, EngineMySQL, EnginePostgres:
	default:
		return errors.Wrapf(ErrUnknownEngine, "%s: %q", invalidErrMessage, c.DB.Engine)
	}

	for name, t := range map[string]Token{"staff": c.JWT.Staff, "citizen": c.JWT.Citizen} {
		if len(t.Secret) < MinSecretLen {
			return errors.Wrapf(ErrWeakSecret, "%s: jwt.%s.secret needs %d bytes", invalidErrMessage, name, MinSecretLen)
		}

		if t.AccessTTL <= 0 || t.RefreshTTL <= 0 || t.AccessTTL >= t.RefreshTTL {
			return errors.Wrapf(ErrInvalidTTL, "%s: jwt.%s", invalidErrMessage, name)
		}
	}

	if c.JWT.Staff.Secret == c.JWT.Citizen.Secret {
		return errors.Wrap(ErrSharedSecret, invalidErrMessage)
	}

	switch c.Blacklist.Backend {
	case BlacklistMemory, BlacklistDB, BlacklistMySQL, BlacklistPostgres:
	default:
		return errors.Wrapf(ErrUnknownBlacklist, "%s: %q", invalidErrMessage, c.Blacklist.Backend)
	}

	if c.PasswordReset.OtpTTL <= 0 {
		return errors.Wrap(ErrInvalidTTL, invalidErrMessage+": passwordReset.otpTTL")
	}

	if c.PasswordReset.Digits != 6 && c.PasswordReset.Digits != 8 {
		return errors.Wrap(ErrInvalidDigits, invalidErrMessage)
	}

	return nil
}
