package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/learnportal/backend/internal/middleware"
	"github.com/learnportal/backend/internal/models"
	"go.uber.org/zap"
)

// RefreshTokenCookie holds the refresh token between sessions
const RefreshTokenCookie = "refresh_token"

// AuthService is the interface that wraps methods for authentication business logic.
type AuthService interface {
	// Method Register creates a student account and returns its first token pair.
	//
	// If the request is invalid, a VALIDATION_ERROR is returned; an already registered email gives CONFLICT.
	Register(ctx context.Context, req *models.RegisterRequest) (models.TokenPair, error)
	// Method Login checks the credentials and returns a new token pair.
	//
	// Unknown emails and wrong passwords both give the same UNAUTHORIZED error.
	Login(ctx context.Context, req *models.LoginRequest) (models.TokenPair, error)
	// Method AdminLogin is Login restricted to administrator accounts.
	//
	// Valid credentials of a student give ACCESS_DENIED and no tokens.
	AdminLogin(ctx context.Context, req *models.LoginRequest) (models.TokenPair, error)
	// Method Refresh exchanges a stored refresh token for a new pair, revoking the old refresh token.
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
	// Method Logout revokes a refresh token.
	Logout(ctx context.Context, refreshToken string) error
}

// PasswordResetService is the interface that wraps the forgotten password flow.
type PasswordResetService interface {
	// Method ForgotPassword mails a single use reset token. Unknown emails succeed silently.
	ForgotPassword(ctx context.Context, req *models.ForgotPasswordRequest) error
	// Method ResetPassword sets a new password and signs the account out everywhere.
	//
	// An unknown or expired token gives UNAUTHORIZED.
	ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) error
}

// CookieSettings controls the session cookies set by the auth handler
type CookieSettings struct {
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	Secure             bool
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService  AuthService
	resetService PasswordResetService
	cookies      CookieSettings
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, resetService PasswordResetService, cookies CookieSettings, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler:  BaseHandler{Logger: logger},
		authService:  authService,
		resetService: resetService,
		cookies:      cookies,
	}
}

// RegisterRoutes registers all auth handler routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/admin/login", h.AdminLogin)
		r.Post("/password/forgot", h.ForgotPassword)
		r.Post("/password/reset", h.ResetPassword)
		r.Post("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)
	})
}

// RefreshRequest represents a token refresh or logout request
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Register handles POST /auth/register
// @Summary Register a new learner
// @Description Create a student account. Tokens are returned in the body and as HTTP-only cookies.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Sign-up request"
// @Success 201 {object} models.TokenPair
// @Failure 400 {object} apperrors.Error "Validation error"
// @Failure 409 {object} apperrors.Error "Email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, r, err)
		return
	}

	pair, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	h.setTokenCookies(w, pair)
	h.RespondJSON(w, http.StatusCreated, pair)
}

// Login handles POST /auth/login
// @Summary Login
// @Description Authenticate with email and password. Tokens are returned in the body and as HTTP-only cookies.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} models.TokenPair
// @Failure 400 {object} apperrors.Error "Validation error"
// @Failure 401 {object} apperrors.Error "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, r, err)
		return
	}

	pair, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.Logger.Debug("login failed", zap.Error(err))
		h.RespondError(w, r, err)
		return
	}

	h.setTokenCookies(w, pair)
	h.RespondJSON(w, http.StatusOK, pair)
}

// AdminLogin handles POST /auth/admin/login
// @Summary Administrator login
// @Description Same as login, but only administrator accounts receive tokens.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} models.TokenPair
// @Failure 401 {object} apperrors.Error "Invalid credentials"
// @Failure 403 {object} apperrors.Error "Not an administrator"
// @Router /auth/admin/login [post]
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, r, err)
		return
	}

	pair, err := h.authService.AdminLogin(r.Context(), &req)
	if err != nil {
		h.Logger.Debug("admin login failed", zap.Error(err))
		h.RespondError(w, r, err)
		return
	}

	h.setTokenCookies(w, pair)
	h.RespondJSON(w, http.StatusOK, pair)
}

// ForgotPassword handles POST /auth/password/forgot
// @Summary Request a password reset
// @Description Mails a reset token when the email belongs to an account. The answer is the same either way.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.ForgotPasswordRequest true "Account email"
// @Success 202 {object} map[string]string
// @Failure 400 {object} apperrors.Error "Validation error"
// @Router /auth/password/forgot [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, r, err)
		return
	}

	if err := h.resetService.ForgotPassword(r.Context(), &req); err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.RespondJSON(w, http.StatusAccepted, map[string]string{"message": "if the account exists, a reset email has been sent"})
}

// ResetPassword handles POST /auth/password/reset
// @Summary Reset the password
// @Description Sets a new password with a mailed token. Every session of the account is revoked.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.ResetPasswordRequest true "Token and new password"
// @Success 200 {object} map[string]string
// @Failure 400 {object} apperrors.Error "Validation error"
// @Failure 401 {object} apperrors.Error "Invalid or expired token"
// @Router /auth/password/reset [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, r, err)
		return
	}

	if err := h.resetService.ResetPassword(r.Context(), &req); err != nil {
		h.RespondError(w, r, err)
		return
	}
	h.clearTokenCookies(w)
	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// Refresh handles POST /auth/refresh
// @Summary Refresh tokens
// @Description Rotate the refresh token. It can be sent in the body or as the refresh_token cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest false "Refresh token (optional when using the cookie)"
// @Success 200 {object} models.TokenPair
// @Failure 401 {object} apperrors.Error "Missing, invalid or revoked refresh token"
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	pair, err := h.authService.Refresh(r.Context(), h.refreshToken(r))
	if err != nil {
		h.RespondError(w, r, err)
		return
	}

	h.setTokenCookies(w, pair)
	h.RespondJSON(w, http.StatusOK, pair)
}

// Logout handles POST /auth/logout
// @Summary Logout
// @Description Revoke the refresh token and clear the session cookies
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest false "Refresh token (optional when using the cookie)"
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), h.refreshToken(r)); err != nil {
		h.RespondError(w, r, err)
		return
	}

	h.clearTokenCookies(w)
	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// refreshToken reads the refresh token from the JSON body, falling back to the cookie
func (h *AuthHandler) refreshToken(r *http.Request) string {
	var req RefreshRequest
	if err := h.DecodeJSON(r, &req); err == nil && req.RefreshToken != "" {
		return req.RefreshToken
	}
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

// setTokenCookies sets access and refresh tokens as HTTP-only cookies
func (h *AuthHandler) setTokenCookies(w http.ResponseWriter, pair models.TokenPair) {
	http.SetCookie(w, h.cookie(middleware.AccessTokenCookie, pair.AccessToken, int(h.cookies.AccessTokenExpiry.Seconds())))
	http.SetCookie(w, h.cookie(RefreshTokenCookie, pair.RefreshToken, int(h.cookies.RefreshTokenExpiry.Seconds())))
}

func (h *AuthHandler) clearTokenCookies(w http.ResponseWriter) {
	http.SetCookie(w, h.cookie(middleware.AccessTokenCookie, "", -1))
	http.SetCookie(w, h.cookie(RefreshTokenCookie, "", -1))
}

func (h *AuthHandler) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
