// AngelaMos | 2026
// jwt.go

package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/core"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenPair is the result of a successful login or signup.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// JWTManager signs and verifies HS256 tokens. Access and refresh tokens
// use separate secrets so neither can stand in for the other.
type JWTManager struct {
	accessKey  jwk.Key
	refreshKey jwk.Key
	config     config.JWTConfig
	now        func() time.Time
}

type JWTOption func(*JWTManager)

// WithClock replaces time.Now for issuing and validating tokens.
func WithClock(now func() time.Time) JWTOption {
	return func(m *JWTManager) {
		m.now = now
	}
}

func NewJWTManager(cfg config.JWTConfig, opts ...JWTOption) (*JWTManager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("jwt secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}

	accessKey, err := jwk.Import([]byte(cfg.AccessSecret))
	if err != nil {
		return nil, fmt.Errorf("import access key: %w", err)
	}

	refreshKey, err := jwk.Import([]byte(cfg.RefreshSecret))
	if err != nil {
		return nil, fmt.Errorf("import refresh key: %w", err)
	}

	m := &JWTManager{
		accessKey:  accessKey,
		refreshKey: refreshKey,
		config:     cfg,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

func (m *JWTManager) AccessTTL() time.Duration {
	return m.config.AccessTokenExpire
}

func (m *JWTManager) RefreshTTL() time.Duration {
	return m.config.RefreshTokenExpire
}

func (m *JWTManager) IssuePair(userID string) (*TokenPair, error) {
	now := m.now()

	access, err := m.sign(userID, tokenTypeAccess, now, m.config.AccessTokenExpire, m.accessKey)
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refresh, err := m.sign(userID, tokenTypeRefresh, now, m.config.RefreshTokenExpire, m.refreshKey)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  now.Add(m.config.AccessTokenExpire),
		RefreshExpiresAt: now.Add(m.config.RefreshTokenExpire),
	}, nil
}

func (m *JWTManager) CreateAccessToken(userID string) (string, error) {
	token, err := m.sign(
		userID,
		tokenTypeAccess,
		m.now(),
		m.config.AccessTokenExpire,
		m.accessKey,
	)
	if err != nil {
		return "", fmt.Errorf("create access token: %w", err)
	}
	return token, nil
}

func (m *JWTManager) sign(
	userID, tokenType string,
	now time.Time,
	ttl time.Duration,
	key jwk.Key,
) (string, error) {
	token, err := jwt.NewBuilder().
		JwtID(uuid.New().String()).
		Issuer(m.config.Issuer).
		Audience([]string{m.config.Audience}).
		Subject(userID).
		IssuedAt(now).
		Expiration(now.Add(ttl)).
		NotBefore(now).
		Claim("type", tokenType).
		Build()
	if err != nil {
		return "", fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), key))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return string(signed), nil
}

// ParseAccess returns the subject of a valid access token.
func (m *JWTManager) ParseAccess(tokenString string) (string, error) {
	return m.parse(tokenString, tokenTypeAccess, m.accessKey)
}

// ParseRefresh checks signature, expiry and type only. Whether the token
// is still the one on record is the store's concern.
func (m *JWTManager) ParseRefresh(tokenString string) (string, error) {
	return m.parse(tokenString, tokenTypeRefresh, m.refreshKey)
}

func (m *JWTManager) parse(
	tokenString, wantType string,
	key jwk.Key,
) (string, error) {
	if tokenString == "" {
		return "", fmt.Errorf("verify token: %w", core.ErrNoTokenProvided)
	}

	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256(), key),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
		jwt.WithClock(jwt.ClockFunc(m.now)),
	)
	if err != nil {
		if isTokenExpiredError(err) {
			return "", fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return "", fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	var tokenType string
	if err := token.Get("type", &tokenType); err != nil || tokenType != wantType {
		return "", fmt.Errorf(
			"verify token: invalid token type: %w",
			core.ErrTokenInvalid,
		)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return "", fmt.Errorf(
			"verify token: missing subject: %w",
			core.ErrTokenInvalid,
		)
	}

	return subject, nil
}

func isTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "exp") &&
		strings.Contains(errStr, "not satisfied")
}
