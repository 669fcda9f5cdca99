package redis

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	prefixBlacklist    = "blacklist"
	prefixRefreshToken = "refresh"
)

// TokenStore manages revoked access tokens and refresh tokens. Refresh
// tokens are stored hashed; the raw token never reaches Redis.
type TokenStore struct {
	client *Client
}

// NewTokenStore creates a new token store.
func NewTokenStore(client *Client) (*TokenStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &TokenStore{client: client}, nil
}

// BlacklistToken marks a JWT ID as revoked until its natural expiry.
func (s *TokenStore) BlacklistToken(ctx context.Context, jti string, expiry time.Duration) error {
	if jti == "" {
		return errors.New("jti is required")
	}
	if expiry <= 0 {
		// Token already expired; nothing to revoke.
		return nil
	}
	key := fmt.Sprintf("%s:%s", prefixBlacklist, jti)
	if err := s.client.Set(ctx, key, "1", expiry); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

// IsBlacklisted reports whether a JWT ID has been revoked.
func (s *TokenStore) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, errors.New("jti is required")
	}
	return s.client.Exists(ctx, fmt.Sprintf("%s:%s", prefixBlacklist, jti))
}

// StoreRefreshToken stores a hashed refresh token for a user.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, userID, tokenHash string, ttl time.Duration) error {
	if userID == "" || tokenHash == "" {
		return errors.New("user id and token hash are required")
	}
	key := fmt.Sprintf("%s:%s:%s", prefixRefreshToken, userID, tokenHash)
	if err := s.client.Set(ctx, key, "1", ttl); err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

// ValidateRefreshToken checks whether a hashed refresh token is live.
func (s *TokenStore) ValidateRefreshToken(ctx context.Context, userID, tokenHash string) (bool, error) {
	if userID == "" || tokenHash == "" {
		return false, errors.New("user id and token hash are required")
	}
	return s.client.Exists(ctx, fmt.Sprintf("%s:%s:%s", prefixRefreshToken, userID, tokenHash))
}

// RevokeRefreshToken removes a single refresh token.
func (s *TokenStore) RevokeRefreshToken(ctx context.Context, userID, tokenHash string) error {
	if userID == "" || tokenHash == "" {
		return errors.New("user id and token hash are required")
	}
	return s.client.Del(ctx, fmt.Sprintf("%s:%s:%s", prefixRefreshToken, userID, tokenHash))
}

// RotateRefreshToken atomically swaps an old refresh token for a new one.
// The old token must still be live or the rotation fails, which catches
// refresh token replay.
func (s *TokenStore) RotateRefreshToken(ctx context.Context, userID, oldHash, newHash string, ttl time.Duration) error {
	valid, err := s.ValidateRefreshToken(ctx, userID, oldHash)
	if err != nil {
		return err
	}
	if !valid {
		return ErrKeyNotFound
	}
	if err := s.RevokeRefreshToken(ctx, userID, oldHash); err != nil {
		return err
	}
	return s.StoreRefreshToken(ctx, userID, newHash, ttl)
}
