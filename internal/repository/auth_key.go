package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/forgo/storefront-e2e/internal/database"
	"github.com/forgo/storefront-e2e/internal/model"
)

// AuthKeyRepository handles single-use activation and reset keys
type AuthKeyRepository struct {
	db database.Database
}

// NewAuthKeyRepository creates a new auth key repository
func NewAuthKeyRepository(db database.Database) *AuthKeyRepository {
	return &AuthKeyRepository{db: db}
}

// Create stores a new unconsumed key
func (r *AuthKeyRepository) Create(ctx context.Context, key *model.AuthKey) error {
	query := `
		CREATE auth_key CONTENT {
			key: $key,
			purpose: $purpose,
			user: type::record($user),
			email: $email,
			expires_at: <datetime>$expires_at,
			seed_tag: $seed_tag,
			created_at: time::now()
		}
	`

	vars := map[string]interface{}{
		"key":        key.Key,
		"purpose":    key.Purpose,
		"user":       key.UserID, // UserID is in format "user:xxx"
		"email":      key.Email,
		"expires_at": key.ExpiresAt.UTC().Format(time.RFC3339Nano),
		"seed_tag":   key.SeedTag,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: key %s already exists", database.ErrDuplicate, key.Key)
		}
		return err
	}

	created, err := firstRecord(result)
	if err != nil {
		return err
	}
	key.ID = getString(created, "id")
	return nil
}

// GetByKey retrieves a key by its secret. A missing key is (nil, nil).
func (r *AuthKeyRepository) GetByKey(ctx context.Context, key string) (*model.AuthKey, error) {
	query := `SELECT * FROM auth_key WHERE key = $key LIMIT 1`
	vars := map[string]interface{}{"key": key}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	k, err := parseAuthKeyResult(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return k, nil
}

// Rearm restores a key to unconsumed with a new expiry and owner
func (r *AuthKeyRepository) Rearm(ctx context.Context, id, userID string, expiresAt time.Time) error {
	query := `UPDATE type::record($id) SET consumed_at = NONE, expires_at = <datetime>$expires_at, user = type::record($user)`
	vars := map[string]interface{}{
		"id":         id,
		"user":       userID,
		"expires_at": expiresAt.UTC().Format(time.RFC3339Nano),
	}

	return r.db.Execute(ctx, query, vars)
}

// Consume marks the key used if, at now, it exists for purpose, is
// unconsumed and unexpired. The check and the write are one statement, so
// of two racing consumers exactly one gets the key back. Any other caller
// gets (nil, nil).
func (r *AuthKeyRepository) Consume(ctx context.Context, key string, purpose model.KeyPurpose, now time.Time) (*model.AuthKey, error) {
	query := `
		UPDATE auth_key SET consumed_at = <datetime>$now
		WHERE key = $key
			AND purpose = $purpose
			AND consumed_at IS NONE
			AND expires_at > <datetime>$now
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"key":     key,
		"purpose": purpose,
		"now":     now.UTC().Format(time.RFC3339Nano),
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	rec, err := firstRecord(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseAuthKeyRecord(rec), nil
}

func parseAuthKeyResult(result interface{}) (*model.AuthKey, error) {
	data, err := unwrapResult(result)
	if err != nil {
		return nil, err
	}
	return parseAuthKeyRecord(data), nil
}

func parseAuthKeyRecord(data map[string]interface{}) *model.AuthKey {
	k := &model.AuthKey{
		ID:         getString(data, "id"),
		Key:        getString(data, "key"),
		Purpose:    model.KeyPurpose(getString(data, "purpose")),
		Email:      getString(data, "email"),
		ExpiresAt:  getTimeValue(data, "expires_at"),
		ConsumedAt: getTime(data, "consumed_at"),
		SeedTag:    getString(data, "seed_tag"),
	}
	// Map "user" record link to UserID
	if u, ok := data["user"]; ok && u != nil {
		k.UserID = convertSurrealID(u)
	}
	return k
}
