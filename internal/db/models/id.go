// Package models contains database model definitions.
package models

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
)

// ID is the surrogate key of every principal. It is assigned when the model is
// constructed and never changes, so two records are the same entity iff their IDs are equal.
type ID uuid.UUID

// NilID is the zero ID. A persisted model never has it.
var NilID = ID(uuid.Nil)

// NewID returns a fresh random ID.
func NewID() ID {
	return ID(uuid.New())
}

// ParseID decodes the canonical textual form of an ID.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilID, fmt.Errorf("invalid id %q: %w", s, err)
	}

	return ID(u), nil
}

// String returns the canonical textual form.
func (id ID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether id is NilID.
func (id ID) IsZero() bool {
	return id == NilID
}

// Value implements driver.Valuer.
func (id ID) Value() (driver.Value, error) {
	return id.String(), nil
}

// Scan implements sql.Scanner.
func (id *ID) Scan(src any) error {
	var u uuid.UUID
	if err := u.Scan(src); err != nil {
		return err
	}

	*id = ID(u)

	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(b []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(b); err != nil {
		return err
	}

	*id = ID(u)

	return nil
}
