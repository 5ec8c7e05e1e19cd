// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/core"
)

type stubVerifier struct {
	tokens map[string]string
	err    error
	seen   []string
}

func (s *stubVerifier) VerifyAccessToken(
	_ context.Context,
	token string,
) (string, error) {
	s.seen = append(s.seen, token)
	if s.err != nil {
		return "", s.err
	}
	id, ok := s.tokens[token]
	if !ok {
		return "", fmt.Errorf("verify: %w", core.ErrTokenInvalid)
	}
	return id, nil
}

type stubLoader struct {
	users map[string]*Identity
	err   error
}

func (s *stubLoader) LoadIdentity(
	_ context.Context,
	userID string,
) (*Identity, error) {
	if s.err != nil {
		return nil, s.err
	}
	id, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("load: %w", core.ErrUserNotFound)
	}
	return id, nil
}

func newAuthFixture() (*stubVerifier, *stubLoader) {
	verifier := &stubVerifier{tokens: map[string]string{
		"customer-token": "u1",
		"admin-token":    "u2",
		"orphan-token":   "u3",
	}}
	loader := &stubLoader{users: map[string]*Identity{
		"u1": {UserID: "u1", Email: "c@example.com", Role: "customer"},
		"u2": {UserID: "u2", Email: "a@example.com", Role: "admin"},
	}}
	return verifier, loader
}

func serve(
	t *testing.T,
	h http.Handler,
	req *http.Request,
) (*httptest.ResponseRecorder, core.Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body core.Response
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func identityEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		core.OK(w, map[string]string{
			"user_id": GetUserID(r.Context()),
			"role":    GetUserRole(r.Context()),
		})
	})
}

func TestAuthenticator(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		cookie     string
		verifyErr  error
		loadErr    error
		wantStatus int
		wantCode   string
		wantUser   string
	}{
		{
			name:       "bearer header",
			header:     "Bearer customer-token",
			wantStatus: http.StatusOK,
			wantUser:   "u1",
		},
		{
			name:       "cookie fallback",
			cookie:     "admin-token",
			wantStatus: http.StatusOK,
			wantUser:   "u2",
		},
		{
			name:       "header wins over cookie",
			header:     "Bearer customer-token",
			cookie:     "admin-token",
			wantStatus: http.StatusOK,
			wantUser:   "u1",
		},
		{
			name:       "malformed header falls back to cookie",
			header:     "Token customer-token",
			cookie:     "admin-token",
			wantStatus: http.StatusOK,
			wantUser:   "u2",
		},
		{
			name:       "no token",
			wantStatus: http.StatusUnauthorized,
			wantCode:   core.CodeNoTokenProvided,
		},
		{
			name:       "empty bearer",
			header:     "Bearer ",
			wantStatus: http.StatusUnauthorized,
			wantCode:   core.CodeNoTokenProvided,
		},
		{
			name:       "unknown token",
			header:     "Bearer forged",
			wantStatus: http.StatusUnauthorized,
			wantCode:   core.CodeTokenInvalid,
		},
		{
			name:       "expired token",
			header:     "Bearer customer-token",
			verifyErr:  fmt.Errorf("verify: %w", core.ErrTokenExpired),
			wantStatus: http.StatusUnauthorized,
			wantCode:   core.CodeTokenExpired,
		},
		{
			name:       "user deleted after issue",
			header:     "Bearer orphan-token",
			wantStatus: http.StatusUnauthorized,
			wantCode:   core.CodeUserNotFound,
		},
		{
			name:       "store unavailable",
			header:     "Bearer customer-token",
			loadErr:    errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   core.CodeInternal,
		},
		{
			name:       "store timeout",
			header:     "Bearer customer-token",
			loadErr:    core.Upstream("load user", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   core.CodeUpstreamTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier, loader := newAuthFixture()
			verifier.err = tt.verifyErr
			loader.err = tt.loadErr

			h := Authenticator(verifier, loader, "accessToken")(identityEcho())

			req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "accessToken", Value: tt.cookie})
			}

			rec, body := serve(t, h, req)
			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantCode != "" {
				require.NotNil(t, body.Error)
				assert.False(t, body.Success)
				assert.Equal(t, tt.wantCode, body.Error.Code)
				return
			}

			assert.True(t, body.Success)
			data, ok := body.Data.(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.wantUser, data["user_id"])
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	verifier, loader := newAuthFixture()
	chain := Authenticator(verifier, loader, "accessToken")(
		RequireAdmin(identityEcho()),
	)

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
		req.Header.Set("Authorization", "Bearer admin-token")

		rec, _ := serve(t, chain, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("customer forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
		req.Header.Set("Authorization", "Bearer customer-token")

		rec, body := serve(t, chain, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		require.NotNil(t, body.Error)
		assert.Equal(t, core.CodeForbidden, body.Error.Code)
	})

	t.Run("role gate without authentication", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)

		rec, body := serve(t, RequireAdmin(identityEcho()), req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		require.NotNil(t, body.Error)
		assert.Equal(t, core.CodeUnauthorized, body.Error.Code)
	})
}

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer  abc ")
	assert.Equal(t, "abc", ExtractToken(req, "accessToken"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "from-cookie"})
	assert.Equal(t, "from-cookie", ExtractToken(req, "accessToken"))
	assert.Empty(t, ExtractToken(req, ""))
}

func TestWithIdentity(t *testing.T) {
	ctx := WithIdentity(context.Background(), &Identity{UserID: "u9", Role: "admin"})

	assert.Equal(t, "u9", GetUserID(ctx))
	assert.True(t, IsAdmin(ctx))
	assert.Nil(t, GetIdentity(context.Background()))
	assert.False(t, IsAdmin(context.Background()))
}
