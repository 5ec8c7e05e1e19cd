// AngelaMos | 2026
// handler_test.go

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/config"
	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

type identityFromUsers struct {
	users *fakeUsers
}

func (l identityFromUsers) LoadIdentity(
	ctx context.Context,
	userID string,
) (*middleware.Identity, error) {
	u, err := l.users.GetByID(ctx, userID)
	if err != nil {
		return nil, core.ErrUserNotFound
	}
	return &middleware.Identity{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}, nil
}

type handlerFixture struct {
	*serviceFixture
	router chi.Router
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	sf := newServiceFixture(t)

	cookies := NewCookieWriter(
		config.CookieConfig{AccessName: "accessToken", RefreshName: "refreshToken"},
		false,
		15*time.Minute,
		7*24*time.Hour,
	)
	h := NewHandler(sf.svc, cookies)

	r := chi.NewRouter()
	authenticator := middleware.Authenticator(
		sf.tokens,
		identityFromUsers{users: sf.users},
		cookies.AccessName(),
	)
	r.Route("/api", func(r chi.Router) {
		h.RegisterRoutes(r, authenticator, nil)
	})

	return &handlerFixture{serviceFixture: sf, router: r}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *core.ErrorBody `json:"error"`
}

func (f *handlerFixture) do(
	t *testing.T,
	method, path string,
	body any,
	mutate func(*http.Request),
) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if mutate != nil {
		mutate(req)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSignupHandler(t *testing.T) {
	f := newHandlerFixture(t)

	rec, env := f.do(t, http.MethodPost, "/api/auth/signup", SignupRequest{
		Email: "a@x.com", Password: "secret123", Name: "A",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)

	var data AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "a@x.com", data.User.Email)
	assert.Equal(t, "customer", data.User.Role)
	assert.NotEmpty(t, data.Tokens.AccessToken)
	assert.NotEmpty(t, data.Tokens.RefreshToken)
	assert.Nil(t, cookieByName(rec, "accessToken"))

	rec, env = f.do(t, http.MethodPost, "/api/auth/signup", SignupRequest{
		Email: "a@x.com", Password: "secret123", Name: "A",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, core.CodeConflict, env.Error.Code)
	assert.Equal(t, "User already exists", env.Error.Message)
}

func TestSignupValidation(t *testing.T) {
	f := newHandlerFixture(t)

	rec, env := f.do(t, http.MethodPost, "/api/auth/signup", SignupRequest{
		Email: "not-an-email", Password: "x",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, core.CodeValidation, env.Error.Code)
}

func TestLoginSetsCookiesForBrowsers(t *testing.T) {
	f := newHandlerFixture(t)
	f.do(t, http.MethodPost, "/api/auth/signup", SignupRequest{
		Email: "b@x.com", Password: "secret123", Name: "B",
	}, nil)

	rec, _ := f.do(t, http.MethodPost, "/api/auth/login", LoginRequest{
		Email: "b@x.com", Password: "secret123",
	}, func(r *http.Request) {
		r.Header.Set("Origin", "http://localhost:5173")
	})
	require.Equal(t, http.StatusOK, rec.Code)

	access := cookieByName(rec, "accessToken")
	require.NotNil(t, access)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, 900, access.MaxAge)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)

	refresh := cookieByName(rec, "refreshToken")
	require.NotNil(t, refresh)
	assert.Equal(t, 604800, refresh.MaxAge)

	rec, _ = f.do(t, http.MethodPost, "/api/auth/login", LoginRequest{
		Email: "b@x.com", Password: "secret123",
	}, func(r *http.Request) {
		r.Header.Set("Origin", "http://localhost:5173")
		r.Header.Set("X-Auth-Transport", "body")
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, cookieByName(rec, "accessToken"))
}

func TestLoginInvalidCredentialsHandler(t *testing.T) {
	f := newHandlerFixture(t)

	rec, env := f.do(t, http.MethodPost, "/api/auth/login", LoginRequest{
		Email: "ghost@x.com", Password: "secret123",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, core.CodeInvalidCredentials, env.Error.Code)
}

func TestRefreshTokenHandler(t *testing.T) {
	f := newHandlerFixture(t)
	_, env := f.do(t, http.MethodPost, "/api/auth/signup", SignupRequest{
		Email: "c@x.com", Password: "secret123", Name: "C",
	}, nil)
	var session AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &session))

	t.Run("missing token", func(t *testing.T) {
		rec, env := f.do(t, http.MethodPost, "/api/auth/refresh-token", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, core.CodeNoRefreshToken, env.Error.Code)
	})

	t.Run("cookie token", func(t *testing.T) {
		rec, env := f.do(t, http.MethodPost, "/api/auth/refresh-token", nil,
			func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "refreshToken", Value: session.Tokens.RefreshToken})
			})
		require.Equal(t, http.StatusOK, rec.Code)

		var data AccessTokenResponse
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.NotEmpty(t, data.AccessToken)
		assert.NotNil(t, cookieByName(rec, "accessToken"))
	})

	t.Run("body token", func(t *testing.T) {
		rec, _ := f.do(t, http.MethodPost, "/api/auth/refresh-token",
			RefreshRequest{RefreshToken: session.Tokens.RefreshToken}, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec, env := f.do(t, http.MethodPost, "/api/auth/refresh-token",
			RefreshRequest{RefreshToken: "garbage"}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, core.CodeInvalidRefreshToken, env.Error.Code)
	})

	t.Run("superseded token", func(t *testing.T) {
		_, env := f.do(t, http.MethodPost, "/api/auth/login", LoginRequest{
			Email: "c@x.com", Password: "secret123",
		}, nil)
		var latest AuthResponse
		require.NoError(t, json.Unmarshal(env.Data, &latest))

		rec, env := f.do(t, http.MethodPost, "/api/auth/refresh-token",
			RefreshRequest{RefreshToken: session.Tokens.RefreshToken}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, core.CodeInvalidRefreshToken, env.Error.Code)

		session = latest
	})

	t.Run("expired token", func(t *testing.T) {
		f.clock.Advance(8 * 24 * time.Hour)
		rec, env := f.do(t, http.MethodPost, "/api/auth/refresh-token",
			RefreshRequest{RefreshToken: session.Tokens.RefreshToken}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, core.CodeTokenExpired, env.Error.Code)
		assert.Equal(t, "refresh token expired", env.Error.Message)
	})
}

func TestLogoutHandler(t *testing.T) {
	f := newHandlerFixture(t)
	_, env := f.do(t, http.MethodPost, "/api/auth/signup", SignupRequest{
		Email: "d@x.com", Password: "secret123", Name: "D",
	}, nil)
	var session AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &session))

	rec, _ := f.do(t, http.MethodPost, "/api/auth/logout", nil, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "refreshToken", Value: session.Tokens.RefreshToken})
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, f.mr.Exists(RefreshKey(session.User.ID)))

	cleared := cookieByName(rec, "refreshToken")
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)

	rec, _ = f.do(t, http.MethodPost, "/api/auth/logout", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutIgnoresMalformedBody(t *testing.T) {
	f := newHandlerFixture(t)
	_, env := f.do(t, http.MethodPost, "/api/auth/signup", SignupRequest{
		Email: "m@x.com", Password: "secret123", Name: "M",
	}, nil)
	var session AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &session))
	require.True(t, f.mr.Exists(RefreshKey(session.User.ID)))

	rec, env := f.do(t, http.MethodPost, "/api/auth/logout", nil, func(r *http.Request) {
		r.Body = io.NopCloser(strings.NewReader(`{"refreshToken":`))
		r.AddCookie(&http.Cookie{Name: "refreshToken", Value: session.Tokens.RefreshToken})
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.False(t, f.mr.Exists(RefreshKey(session.User.ID)))
}

func TestProfileHandler(t *testing.T) {
	f := newHandlerFixture(t)
	_, env := f.do(t, http.MethodPost, "/api/auth/signup", SignupRequest{
		Email: "e@x.com", Password: "secret123", Name: "E",
	}, nil)
	var session AuthResponse
	require.NoError(t, json.Unmarshal(env.Data, &session))

	rec, env := f.do(t, http.MethodGet, "/api/auth/profile", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+session.Tokens.AccessToken)
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var profile ProfileResponse
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "e@x.com", profile.User.Email)

	rec, env = f.do(t, http.MethodGet, "/api/auth/profile", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, core.CodeNoTokenProvided, env.Error.Code)
}
