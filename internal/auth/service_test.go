// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/core"
)

type serviceFixture struct {
	*tokenFixture
	svc    *Service
	users  *fakeUsers
	mailer *fakeMailer
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	tf := newTokenFixture(t)
	users := newFakeUsers()
	mailer := &fakeMailer{}

	svc := NewService(ServiceConfig{
		Tokens:      tf.tokens,
		Users:       users,
		Mailer:      mailer,
		Logger:      tf.logger,
		MailTimeout: time.Second,
	})
	t.Cleanup(svc.Wait)

	return &serviceFixture{tokenFixture: tf, svc: svc, users: users, mailer: mailer}
}

func TestSignupDuplicateEmail(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	first, err := f.svc.Signup(ctx, SignupRequest{
		Email: "a@x.com", Password: "secret123", Name: "A",
	})
	require.NoError(t, err)

	_, err = f.svc.Signup(ctx, SignupRequest{
		Email: "a@x.com", Password: "other-pass", Name: "Impostor",
	})
	assert.ErrorIs(t, err, ErrEmailExists)

	assert.Equal(t, 1, f.users.count())
	stored, err := f.users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, stored.ID)
	assert.Equal(t, "A", stored.Name)
}

func TestSignupPersistsSessionAndSendsWelcome(t *testing.T) {
	f := newServiceFixture(t)

	result, err := f.svc.Signup(context.Background(), SignupRequest{
		Email: "new@x.com", Password: "secret123", Name: "New",
	})
	require.NoError(t, err)

	stored, err := f.mr.Get(RefreshKey(result.User.ID))
	require.NoError(t, err)
	assert.Equal(t, result.Tokens.RefreshToken, stored)

	f.svc.Wait()
	assert.Equal(t, []string{"new@x.com"}, f.mailer.recipients())
}

func TestSignupSucceedsWhenWelcomeEmailFails(t *testing.T) {
	f := newServiceFixture(t)
	f.mailer.err = errors.New("provider down")

	_, err := f.svc.Signup(context.Background(), SignupRequest{
		Email: "new@x.com", Password: "secret123", Name: "New",
	})
	require.NoError(t, err)

	f.svc.Wait()
	assert.Contains(t, f.logs.String(), "auth.welcome_email_failed")
}

func TestLoginThenRefresh(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Signup(ctx, SignupRequest{
		Email: "b@x.com", Password: "secret123", Name: "B",
	})
	require.NoError(t, err)

	issuedAt := f.clock.Now()
	result, err := f.svc.Login(ctx, LoginRequest{Email: "b@x.com", Password: "secret123"})
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, result.Tokens.AccessExpiresAt.Sub(issuedAt))
	assert.Equal(t, 7*24*time.Hour, result.Tokens.RefreshExpiresAt.Sub(issuedAt))
	assert.Equal(t, 7*24*time.Hour, f.mr.TTL(RefreshKey(result.User.ID)))

	access, err := f.svc.Refresh(ctx, result.Tokens.RefreshToken)
	require.NoError(t, err)

	userID, err := f.tokens.VerifyAccessToken(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, userID)

	_, err = f.tokens.VerifyRefreshToken(ctx, result.Tokens.RefreshToken)
	assert.NoError(t, err)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Signup(ctx, SignupRequest{
		Email: "c@x.com", Password: "secret123", Name: "C",
	})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, LoginRequest{Email: "c@x.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, LoginRequest{Email: "nobody@x.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	result, err := f.svc.Signup(ctx, SignupRequest{
		Email: "d@x.com", Password: "secret123", Name: "D",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, result.Tokens.RefreshToken))
	assert.False(t, f.mr.Exists(RefreshKey(result.User.ID)))

	require.NoError(t, f.svc.Logout(ctx, result.Tokens.RefreshToken))
	require.NoError(t, f.svc.Logout(ctx, ""))
	require.NoError(t, f.svc.Logout(ctx, "garbage"))

	_, err = f.svc.Refresh(ctx, result.Tokens.RefreshToken)
	assert.ErrorIs(t, err, core.ErrTokenMismatch)
}

func TestRefreshWithoutToken(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrNoTokenProvided)
}

func TestProfileUnknownUser(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Profile(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrUserNotFound)
}
