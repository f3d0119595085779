package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/forgo/storefront-e2e/internal/database"
	"github.com/forgo/storefront-e2e/internal/model"
)

// UserRepository handles user data access
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	role := user.Role
	if role == "" {
		role = model.UserRoleCustomer
	}

	query := `
		CREATE user CONTENT {
			email: $email,
			hash: IF $hash IS NOT NULL THEN $hash ELSE NONE END,
			firstname: $firstname,
			lastname: $lastname,
			role: $role,
			email_verified: $email_verified,
			seed_tag: $seed_tag,
			created_on: time::now(),
			updated_on: time::now()
		}
	`

	vars := map[string]interface{}{
		"email":          user.Email,
		"hash":           ptrToNone(user.Hash),
		"firstname":      user.Firstname,
		"lastname":       user.Lastname,
		"role":           role,
		"email_verified": user.EmailVerified,
		"seed_tag":       user.SeedTag,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: email %s already exists", database.ErrDuplicate, user.Email)
		}
		return err
	}

	created, err := firstRecord(result)
	if err != nil {
		return err
	}

	user.ID = getString(created, "id")
	user.CreatedOn = getTimeValue(created, "created_on")
	user.UpdatedOn = getTimeValue(created, "updated_on")
	return nil
}

// GetByEmail retrieves a user by email. A missing user is (nil, nil).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT * FROM user WHERE email = $email LIMIT 1`
	vars := map[string]interface{}{"email": email}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	user, err := parseUserResult(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// UpdateCredentials restores a user's password hash and verification state
func (r *UserRepository) UpdateCredentials(ctx context.Context, userID, hash string, verified bool) error {
	query := `UPDATE type::record($id) SET hash = $hash, email_verified = $verified, updated_on = time::now()`
	vars := map[string]interface{}{
		"id":       userID,
		"hash":     hash,
		"verified": verified,
	}

	return r.db.Execute(ctx, query, vars)
}

// CountByEmail counts users with the given email
func (r *UserRepository) CountByEmail(ctx context.Context, email string) (int, error) {
	query := `SELECT count() FROM user WHERE email = $email GROUP ALL`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"email": email})
	if err != nil {
		return 0, err
	}
	return extractCount(result), nil
}

func parseUserResult(result interface{}) (*model.User, error) {
	data, err := unwrapResult(result)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:            getString(data, "id"),
		Email:         getString(data, "email"),
		Firstname:     getString(data, "firstname"),
		Lastname:      getString(data, "lastname"),
		Role:          model.UserRole(getString(data, "role")),
		EmailVerified: getBool(data, "email_verified"),
		SeedTag:       getString(data, "seed_tag"),
		CreatedOn:     getTimeValue(data, "created_on"),
		UpdatedOn:     getTimeValue(data, "updated_on"),
	}
	// Hash is json:"-" on the model, so it is read explicitly
	if h, ok := data["hash"].(string); ok {
		user.Hash = &h
	}
	return user, nil
}

// ptrToNone converts a string pointer to either the string value or nil.
// Queries check for NULL and store NONE for a missing value.
func ptrToNone(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
