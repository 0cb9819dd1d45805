package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("config webserver.port listening port can not be 0")

	// ErrUnknownEngine error if config db.engine is not supported.
	ErrUnknownEngine = errors.New("config db.engine must be sqlite, mysql or postgres")

	// ErrWeakSecret error if a jwt secret is shorter than MinSecretLen.
	ErrWeakSecret = errors.New("config jwt secret is too short")

	// ErrSharedSecret error if staff and citizen tokens share a secret.
	ErrSharedSecret = errors.New("config jwt staff and citizen secrets must differ")

	// ErrInvalidTTL error if a token or code lifetime is not positive.
	ErrInvalidTTL = errors.New("config lifetimes must be positive and access shorter than refresh")

	// ErrUnknownBlacklist error if config blacklist.backend is not supported.
	ErrUnknownBlacklist = errors.New("config blacklist.backend must be memory, db, mysql or postgres")

	// ErrInvalidDigits error if config passwordReset.digits is not 6 or 8.
	ErrInvalidDigits = errors.New("config passwordReset.digits must be 6 or 8")
)
