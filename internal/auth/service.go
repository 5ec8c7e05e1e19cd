// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/carterperez-dev/storefront/internal/core"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already exists")
)

type UserInfo struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(
		ctx context.Context,
		email, passwordHash, name string,
	) (*UserInfo, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type WelcomeMailer interface {
	SendWelcome(ctx context.Context, to, name string) error
}

type Service struct {
	tokens      *TokenService
	users       UserProvider
	mailer      WelcomeMailer
	logger      *slog.Logger
	mailTimeout time.Duration
	background  sync.WaitGroup
}

type ServiceConfig struct {
	Tokens      *TokenService
	Users       UserProvider
	Mailer      WelcomeMailer
	Logger      *slog.Logger
	MailTimeout time.Duration
}

func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		tokens:      cfg.Tokens,
		users:       cfg.Users,
		mailer:      cfg.Mailer,
		logger:      logger,
		mailTimeout: cfg.MailTimeout,
	}
}

// AuthResult is what a successful signup or login yields. Transport
// (body or cookies) is decided by the handler.
type AuthResult struct {
	User   *UserInfo
	Tokens *TokenPair
}

func (s *Service) Signup(ctx context.Context, req SignupRequest) (*AuthResult, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, req.Email, passwordHash, req.Name)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	result, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.sendWelcome(ctx, user)
	return result, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		if err := s.users.UpdatePassword(ctx, user.ID, newHash); err != nil {
			s.logger.Warn("auth.rehash_failed", "user_id", user.ID, "error", err)
		}
	}

	return s.startSession(ctx, user)
}

// Logout revokes the stored refresh token when the presented one carries
// a valid signature. Missing or unreadable tokens are not an error.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	userID, err := s.tokens.RefreshSubject(refreshToken)
	if err != nil {
		s.logger.Debug("auth.logout_unverified_token", "error", err)
		return nil
	}

	if err := s.tokens.Revoke(ctx, userID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", fmt.Errorf("refresh: %w", core.ErrNoTokenProvided)
	}

	access, err := s.tokens.RotateAccessToken(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh: %w", err)
	}
	return access, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (*UserInfo, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("profile: %w", core.ErrUserNotFound)
		}
		return nil, fmt.Errorf("profile: %w", err)
	}
	return user, nil
}

// Wait blocks until background work started by Signup has finished.
func (s *Service) Wait() {
	s.background.Wait()
}

func (s *Service) startSession(ctx context.Context, user *UserInfo) (*AuthResult, error) {
	pair, err := s.tokens.IssueTokenPair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	if err := s.tokens.PersistRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	return &AuthResult{User: user, Tokens: pair}, nil
}

func (s *Service) sendWelcome(ctx context.Context, user *UserInfo) {
	if s.mailer == nil {
		return
	}

	s.background.Add(1)
	go func() {
		defer s.background.Done()

		mailCtx := context.WithoutCancel(ctx)
		if s.mailTimeout > 0 {
			var cancel context.CancelFunc
			mailCtx, cancel = context.WithTimeout(mailCtx, s.mailTimeout)
			defer cancel()
		}

		if err := s.mailer.SendWelcome(mailCtx, user.Email, user.Name); err != nil {
			s.logger.Warn("auth.welcome_email_failed",
				"user_id", user.ID,
				"error", err,
			)
		}
	}()
}
