package app

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/menucraft/api/internal/infra/redis"
	"github.com/menucraft/api/pkg/domain/shared"
	"github.com/menucraft/api/pkg/domain/user"
	"github.com/menucraft/api/pkg/jwt"
	"github.com/menucraft/api/pkg/logger"
	"github.com/menucraft/api/pkg/password"
)

// ErrInvalidCredentials is returned on any login failure. The cause (unknown
// email, wrong password, suspended account) is never distinguished to the
// caller.
var ErrInvalidCredentials = errors.New("invalid email or password")

const refreshTokenTTL = 30 * 24 * time.Hour

// TokenPair is what login and refresh return.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AuthService handles login, token refresh, and logout.
type AuthService struct {
	userRepo user.Repository
	tokens   *jwt.Manager
	store    *redis.TokenStore
	hasher   *password.Hasher
	clock    shared.Clock
	logger   *logger.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo user.Repository,
	tokens *jwt.Manager,
	store *redis.TokenStore,
	hasher *password.Hasher,
	clock shared.Clock,
	log *logger.Logger,
) *AuthService {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		store:    store,
		hasher:   hasher,
		clock:    clock,
		logger:   log.With("service", "auth"),
	}
}

// Login verifies credentials and returns a token pair.
func (s *AuthService) Login(ctx context.Context, email, pass string) (*TokenPair, *user.User, error) {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !u.IsActive() {
		return nil, nil, ErrInvalidCredentials
	}
	if err := s.hasher.Verify(pass, u.PasswordHash()); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	u.RecordLogin(s.clock.Now())
	if err := s.userRepo.Update(ctx, u); err != nil {
		s.logger.Warn("failed to record login time", "user_id", u.ID(), "error", err)
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return pair, u, nil
}

// Refresh rotates a refresh token and issues a fresh pair. A replayed
// refresh token fails validation and revokes nothing further; the client
// must log in again.
func (s *AuthService) Refresh(ctx context.Context, userID shared.ID, refreshToken string) (*TokenPair, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !u.IsActive() {
		return nil, ErrInvalidCredentials
	}

	newToken, err := randomToken()
	if err != nil {
		return nil, err
	}
	err = s.store.RotateRefreshToken(ctx, u.ID().String(), hashToken(refreshToken), hashToken(newToken), refreshTokenTTL)
	if errors.Is(err, redis.ErrKeyNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	access, err := s.tokens.Issue(u.ID().String(), u.OrganizationID().String(), u.Email())
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: newToken,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Logout revokes the refresh token and blacklists the current access token
// for the remainder of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *jwt.Claims, refreshToken string) error {
	if refreshToken != "" {
		if err := s.store.RevokeRefreshToken(ctx, claims.UserID, hashToken(refreshToken)); err != nil {
			s.logger.Warn("failed to revoke refresh token", "user_id", claims.UserID, "error", err)
		}
	}
	if claims.ID != "" && claims.ExpiresAt != nil {
		remaining := time.Until(claims.ExpiresAt.Time)
		if err := s.store.BlacklistToken(ctx, claims.ID, remaining); err != nil {
			return fmt.Errorf("failed to blacklist token: %w", err)
		}
	}
	return nil
}

// IsRevoked reports whether an access token has been blacklisted.
func (s *AuthService) IsRevoked(ctx context.Context, claims *jwt.Claims) (bool, error) {
	if claims.ID == "" {
		return false, nil
	}
	return s.store.IsBlacklisted(ctx, claims.ID)
}

func (s *AuthService) issuePair(ctx context.Context, u *user.User) (*TokenPair, error) {
	access, err := s.tokens.Issue(u.ID().String(), u.OrganizationID().String(), u.Email())
	if err != nil {
		return nil, err
	}
	refresh, err := randomToken()
	if err != nil {
		return nil, err
	}
	if err := s.store.StoreRefreshToken(ctx, u.ID().String(), hashToken(refresh), refreshTokenTTL); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
