// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/middleware"
)

type Handler struct {
	service   *Service
	cookies   *CookieWriter
	validator *validator.Validate
}

func NewHandler(service *Service, cookies *CookieWriter) *Handler {
	return &Handler{
		service:   service,
		cookies:   cookies,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts /auth. limiter guards the credential and refresh
// endpoints and may be nil.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	limiter func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter)
			}
			r.Post("/signup", h.Signup)
			r.Post("/login", h.Login)
			r.Post("/refresh-token", h.RefreshToken)
		})

		r.Post("/logout", h.Logout)
		r.With(authenticator).Get("/profile", h.Profile)
	})
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	result, err := h.service.Signup(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			core.JSONError(w, core.NewAppError(
				core.ErrConflict,
				"User already exists",
				http.StatusBadRequest,
				core.CodeConflict,
			))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	h.writeSession(w, r, http.StatusCreated, result)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	result, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			core.JSONError(w, core.NewAppError(
				ErrInvalidCredentials,
				"Invalid email or password",
				http.StatusBadRequest,
				core.CodeInvalidCredentials,
			))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	h.writeSession(w, r, http.StatusOK, result)
}

// Logout always succeeds for the client. A body that fails to decode is
// ignored and the cookie, if any, still identifies the session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var body RefreshRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck // best-effort body token
	}

	token := h.cookies.RefreshToken(r, body.RefreshToken)
	if err := h.service.Logout(r.Context(), token); err != nil {
		core.InternalServerError(w, err)
		return
	}

	h.cookies.Clear(w)
	core.OK(w, map[string]string{"message": "Logged out successfully"})
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeRefreshBody(w, r)
	if !ok {
		return
	}

	token := h.cookies.RefreshToken(r, body.RefreshToken)
	if token == "" {
		core.JSONError(w, core.NewAppError(
			core.ErrNoTokenProvided,
			"No refresh token provided",
			http.StatusUnauthorized,
			core.CodeNoRefreshToken,
		))
		return
	}

	access, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrTokenExpired):
			core.JSONError(w, core.RefreshTokenExpiredError())
		case errors.Is(err, core.ErrTokenInvalid),
			errors.Is(err, core.ErrTokenMismatch):
			core.JSONError(w, core.NewAppError(
				err,
				"Invalid refresh token",
				http.StatusUnauthorized,
				core.CodeInvalidRefreshToken,
			))
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	if h.cookies.WantsCookies(r) {
		h.cookies.SetAccess(w, access)
	}
	core.OK(w, AccessTokenResponse{AccessToken: access})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "authentication required")
		return
	}

	user, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			core.JSONError(w, core.UserNotFoundError())
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ProfileResponse{User: toUserResponse(user)})
}

func (h *Handler) writeSession(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	result *AuthResult,
) {
	if h.cookies.WantsCookies(r) {
		h.cookies.SetTokens(w, result.Tokens)
	}

	core.JSON(w, status, core.Response{
		Success: true,
		Data: AuthResponse{
			User:   toUserResponse(result.User),
			Tokens: toTokenResponse(result.Tokens, time.Now()),
		},
	})
}

// decodeRefreshBody accepts an empty body. Only malformed JSON fails.
func decodeRefreshBody(w http.ResponseWriter, r *http.Request) (RefreshRequest, bool) {
	var req RefreshRequest
	if r.Body == nil {
		return req, true
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		core.BadRequest(w, "invalid request body")
		return req, false
	}
	return req, true
}
