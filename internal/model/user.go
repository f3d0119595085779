package model

import "time"

// UserRole represents the role of a storefront account
type UserRole string

const (
	UserRoleCustomer UserRole = "customer" // Default shopper account
	UserRoleAdmin    UserRole = "admin"    // Admin console access
)

// Valid reports whether r is a known role
func (r UserRole) Valid() bool {
	return r == UserRoleCustomer || r == UserRoleAdmin
}

// Verification is the email verification state of a seeded account
type Verification string

const (
	Verified   Verification = "verified"
	Unverified Verification = "unverified"
)

// User represents a persisted storefront account
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Hash          *string   `json:"-"` // Never expose password hash
	Firstname     string    `json:"firstname"`
	Lastname      string    `json:"lastname"`
	Role          UserRole  `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	SeedTag       string    `json:"seed_tag,omitempty"`
	CreatedOn     time.Time `json:"created_on"`
	UpdatedOn     time.Time `json:"updated_on"`
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// UserFixture is the known-value definition of a test account.
// Password is kept in plaintext so assertions can log in with it.
type UserFixture struct {
	Email         string       `json:"email"`
	Password      string       `json:"password"`
	Firstname     string       `json:"firstname"`
	Lastname      string       `json:"lastname"`
	Role          UserRole     `json:"role"`
	Verification  Verification `json:"verification"`
	ActivationKey string       `json:"activation_key,omitempty"`
	ResetKey      string       `json:"reset_key,omitempty"`
}

// Verified returns true if the fixture should be able to authenticate
func (f UserFixture) Verified() bool {
	return f.Verification == Verified
}

// Validate checks the fixture is seedable
func (f UserFixture) Validate() error {
	if f.Email == "" {
		return &ValidationError{Field: "email", Message: "is required"}
	}
	if f.Password == "" {
		return &ValidationError{Field: "password", Message: "is required", Value: f.Email}
	}
	if !f.Role.Valid() {
		return &ValidationError{Field: "role", Message: "must be customer or admin", Value: f.Email}
	}
	if f.Verification != Verified && f.Verification != Unverified {
		return &ValidationError{Field: "verification", Message: "must be verified or unverified", Value: f.Email}
	}
	// An unverified account without an activation key could never be activated by a test
	if f.Verification == Unverified && f.ActivationKey == "" {
		return &ValidationError{Field: "activation_key", Message: "is required for unverified users", Value: f.Email}
	}
	return nil
}
