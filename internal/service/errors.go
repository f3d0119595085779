package service

import (
	"errors"
	"fmt"
)

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in the CLI and acceptance harness predictable.

// ===== Seeding Errors =====
var (
	ErrNotConnected    = errors.New("seeder is not connected")
	ErrSeedConflict    = errors.New("fixture conflicts with an existing record")
	ErrResetNotAllowed = errors.New("database reset not enabled (set E2E_RESET_DATABASE=true)")
	ErrEmptyFixtureSet = errors.New("fixture set is empty")
)

// ===== Single-use Key Errors =====

// ErrKeyInvalidOrExpired is the class every rejected key consumption matches
var ErrKeyInvalidOrExpired = errors.New("key is invalid or expired")

var (
	ErrKeyInvalid  = fmt.Errorf("%w: unknown key or wrong purpose", ErrKeyInvalidOrExpired)
	ErrKeyConsumed = fmt.Errorf("%w: already consumed", ErrKeyInvalidOrExpired)
	ErrKeyExpired  = fmt.Errorf("%w: expired", ErrKeyInvalidOrExpired)
)

// ConflictError names the record and field an existing row disagrees on
type ConflictError struct {
	Table    string
	Key      string
	Field    string
	Existing string
	Wanted   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s: %s is %q, fixture wants %q", e.Table, e.Key, e.Field, e.Existing, e.Wanted)
}

func (e *ConflictError) Unwrap() error {
	return ErrSeedConflict
}
