package model

import "time"

// KeyPurpose binds a single-use key to one account action
type KeyPurpose string

const (
	KeyPurposeActivation    KeyPurpose = "activation"
	KeyPurposePasswordReset KeyPurpose = "password_reset"
)

// Valid reports whether p is a known purpose
func (p KeyPurpose) Valid() bool {
	return p == KeyPurposeActivation || p == KeyPurposePasswordReset
}

// KeyState is the observable state of a single-use key
type KeyState string

const (
	KeyStateValid    KeyState = "valid"
	KeyStateConsumed KeyState = "consumed"
	KeyStateExpired  KeyState = "expired"
	KeyStateInvalid  KeyState = "invalid" // unknown key or wrong purpose
)

// AuthKey is a persisted activation or password-reset key
type AuthKey struct {
	ID         string     `json:"id"`
	Key        string     `json:"key"`
	Purpose    KeyPurpose `json:"purpose"`
	UserID     string     `json:"user_id"`
	Email      string     `json:"email"`
	ExpiresAt  time.Time  `json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	SeedTag    string     `json:"seed_tag,omitempty"`
}

// StateAt classifies the key at the given instant for the requested purpose.
// Consumption wins over expiry: a key used before it expired stays "consumed".
func (k *AuthKey) StateAt(purpose KeyPurpose, now time.Time) KeyState {
	if k == nil || k.Purpose != purpose {
		return KeyStateInvalid
	}
	if k.ConsumedAt != nil {
		return KeyStateConsumed
	}
	if !now.Before(k.ExpiresAt) {
		return KeyStateExpired
	}
	return KeyStateValid
}
