package models

import (
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// HashParams are the Argon2id parameters used for new hashes.
// Tests lower them to keep runs fast; stored hashes encode their own parameters.
var HashParams = argon2id.DefaultParams //nolint:gochecknoglobals

// HashPassword hashes a plaintext password using the Argon2id algorithm.
func HashPassword(password string) (string, error) {
	hashed, err := argon2id.CreateHash(password, HashParams)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return hashed, nil
}

// VerifyPassword compares a plaintext password with an Argon2id hash in constant time.
func VerifyPassword(password, hash string) bool {
	if hash == "" {
		return false
	}

	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		log.Error().Err(err).Msg("failed to verify password")
		return false
	}

	return match
}
