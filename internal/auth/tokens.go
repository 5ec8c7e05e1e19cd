// AngelaMos | 2026
// tokens.go

package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/metrics"
)

const (
	eventIssued   = "issued"
	eventRotated  = "rotated"
	eventRevoked  = "revoked"
	eventMismatch = "mismatch"
)

// TokenService owns the session token lifecycle: issue, verify, rotate
// the access token, and revoke the stored refresh token.
type TokenService struct {
	jwt     *JWTManager
	store   *RefreshStore
	logger  *slog.Logger
	metrics *metrics.Registry
}

func NewTokenService(
	jwt *JWTManager,
	store *RefreshStore,
	logger *slog.Logger,
	reg *metrics.Registry,
) *TokenService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenService{
		jwt:     jwt,
		store:   store,
		logger:  logger,
		metrics: reg,
	}
}

func (s *TokenService) JWT() *JWTManager {
	return s.jwt
}

// IssueTokenPair signs a fresh pair. It does not touch the store.
func (s *TokenService) IssueTokenPair(userID string) (*TokenPair, error) {
	pair, err := s.jwt.IssuePair(userID)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveTokenEvent(eventIssued)
	s.logger.Info("auth.token_issued", "user_id", userID)
	return pair, nil
}

func (s *TokenService) PersistRefreshToken(
	ctx context.Context,
	userID, token string,
) error {
	return s.store.Put(ctx, userID, token)
}

// VerifyAccessToken validates without consulting the store, so a revoked
// session keeps working until its access token expires.
func (s *TokenService) VerifyAccessToken(
	_ context.Context,
	token string,
) (string, error) {
	return s.jwt.ParseAccess(token)
}

// VerifyRefreshToken requires the token to be cryptographically valid and
// identical to the one on record for its subject.
func (s *TokenService) VerifyRefreshToken(
	ctx context.Context,
	token string,
) (string, error) {
	userID, err := s.jwt.ParseRefresh(token)
	if err != nil {
		return "", err
	}

	stored, ok, err := s.store.Get(ctx, userID)
	if err != nil {
		return "", err
	}

	if !ok || !core.ConstantTimeEqual(stored, token) {
		s.metrics.ObserveTokenEvent(eventMismatch)
		s.logger.Warn("auth.refresh_mismatch",
			"user_id", userID,
			"stored", ok,
		)
		return "", fmt.Errorf("verify refresh token: %w", core.ErrTokenMismatch)
	}

	return userID, nil
}

func (s *TokenService) Revoke(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return err
	}
	s.metrics.ObserveTokenEvent(eventRevoked)
	s.logger.Info("auth.token_revoked", "user_id", userID)
	return nil
}

// RotateAccessToken exchanges a valid refresh token for a new access
// token. The refresh token itself stays valid until expiry or logout.
func (s *TokenService) RotateAccessToken(
	ctx context.Context,
	refreshToken string,
) (string, error) {
	userID, err := s.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", err
	}

	access, err := s.jwt.CreateAccessToken(userID)
	if err != nil {
		return "", err
	}

	s.metrics.ObserveTokenEvent(eventRotated)
	s.logger.Info("auth.access_rotated", "user_id", userID)
	return access, nil
}

// RefreshSubject reads the subject of a refresh token without checking
// the store.
func (s *TokenService) RefreshSubject(token string) (string, error) {
	return s.jwt.ParseRefresh(token)
}
