// Package verification issues and redeems one-time email verification tokens.
package verification

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/jpalomar/CitasGo/pkg/errors"
)

const keyPrefix = "verify:"

// TokenTTL is how long a verification link stays valid.
const TokenTTL = 24 * time.Hour

// Store keeps verification tokens in Redis, keyed by user ID. Tokens are
// single-use: a successful redeem deletes the key.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a Redis-backed verification token store.
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		ttl:    TokenTTL,
	}
}

// Issue generates a fresh token for the user and stores it with the
// configured TTL, replacing any previous token.
func (s *Store) Issue(ctx context.Context, userID string) (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := s.client.Set(ctx, keyPrefix+userID, token, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store verification token: %w", err)
	}

	return token, nil
}

// Redeem validates the token for the user and consumes it. An unknown user,
// an expired token, or a mismatched token all return ErrInvalidInput.
func (s *Store) Redeem(ctx context.Context, userID, token string) error {
	key := keyPrefix + userID

	stored, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return apperrors.InvalidInput("El enlace de verificación es inválido o ha expirado.")
		}
		return fmt.Errorf("get verification token: %w", err)
	}

	if stored != token {
		return apperrors.InvalidInput("El enlace de verificación es inválido o ha expirado.")
	}

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("consume verification token: %w", err)
	}

	return nil
}
