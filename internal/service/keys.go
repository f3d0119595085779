package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/forgo/storefront-e2e/internal/model"
)

// KeyService reads and consumes single-use activation and reset keys
type KeyService struct {
	keys   AuthKeyRepository
	logger *slog.Logger
	now    func() time.Time
}

// KeyServiceConfig holds configuration for the key service
type KeyServiceConfig struct {
	Keys   AuthKeyRepository
	Logger *slog.Logger
	Now    func() time.Time
}

// NewKeyService creates a new key service
func NewKeyService(cfg KeyServiceConfig) *KeyService {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &KeyService{keys: cfg.Keys, logger: cfg.Logger, now: cfg.Now}
}

// State classifies key for purpose. An unknown key is KeyStateInvalid.
func (s *KeyService) State(ctx context.Context, key string, purpose model.KeyPurpose) (model.KeyState, error) {
	k, err := s.keys.GetByKey(ctx, key)
	if err != nil {
		return "", fmt.Errorf("looking up key: %w", err)
	}
	return k.StateAt(purpose, s.now()), nil
}

// Consume marks key used. Exactly one of any number of concurrent callers
// succeeds; the rest get an error matching ErrKeyInvalidOrExpired.
func (s *KeyService) Consume(ctx context.Context, key string, purpose model.KeyPurpose) (*model.AuthKey, error) {
	if !purpose.Valid() {
		return nil, fmt.Errorf("%w: purpose %q", ErrKeyInvalid, purpose)
	}

	now := s.now()
	consumed, err := s.keys.Consume(ctx, key, purpose, now)
	if err != nil {
		return nil, fmt.Errorf("consuming key: %w", err)
	}
	if consumed != nil {
		s.logger.Debug("key consumed", slog.String("purpose", string(purpose)), slog.String("email", consumed.Email))
		return consumed, nil
	}

	// Nothing matched: report why from the current state
	k, err := s.keys.GetByKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("looking up key: %w", err)
	}
	switch k.StateAt(purpose, now) {
	case model.KeyStateConsumed:
		return nil, ErrKeyConsumed
	case model.KeyStateExpired:
		return nil, ErrKeyExpired
	default:
		return nil, ErrKeyInvalid
	}
}
