package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/lamarea/storefront/internal/auth"
	"github.com/lamarea/storefront/internal/models"
	"github.com/lamarea/storefront/internal/services"
	"github.com/lamarea/storefront/pkg/httpx"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password, ipAddress string) (*services.LoginResult, error)
	Register(ctx context.Context, email, password, name string) (*models.User, error)
	Me(ctx context.Context, userID string) (*services.PublicUser, error)
}

// EmailVerificationInterface defines the interface for the verification flow
type EmailVerificationInterface interface {
	VerifyEmail(ctx context.Context, plainToken string) (string, error)
	ResendVerification(ctx context.Context, email string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service         AuthServiceInterface
	verificationSvc EmailVerificationInterface
	cookieConfig    auth.CookieConfig
	sessionTTL      time.Duration
	ipConfig        *httpx.IPConfig
}

func NewAuthHandler(
	service AuthServiceInterface,
	verificationSvc EmailVerificationInterface,
	cookieConfig auth.CookieConfig,
	sessionTTL time.Duration,
	ipConfig *httpx.IPConfig,
) *AuthHandler {
	return &AuthHandler{
		service:         service,
		verificationSvc: verificationSvc,
		cookieConfig:    cookieConfig,
		sessionTTL:      sessionTTL,
		ipConfig:        ipConfig,
	}
}

// Request DTOs

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required,min=1"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteFieldError(w, http.StatusBadRequest, "validation_error",
			"Email and password are required", "general", nil)
		return
	}

	if req.Email == "" || req.Password == "" {
		httpx.WriteFieldError(w, http.StatusBadRequest, "validation_error",
			"Email and password are required", "general", nil)
		return
	}

	ipAddress := httpx.ExtractClientIP(r, h.ipConfig)

	result, err := h.service.Login(r.Context(), req.Email, req.Password, ipAddress)
	if err != nil {
		writeLoginError(w, err)
		return
	}

	auth.SetSessionCookie(w, result.Token, h.sessionTTL, h.cookieConfig)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    result.User,
	})
}

// writeLoginError maps throttle outcomes to the wire contract:
// 401 invalid credentials, 403 verification required, 423 locked.
func writeLoginError(w http.ResponseWriter, err error) {
	var denied *models.LoginDenied
	if !errors.As(err, &denied) {
		httpx.WriteInternalError(w, "Internal server error")
		return
	}

	extra := map[string]any{}
	status := http.StatusUnauthorized

	switch denied.Kind {
	case models.LoginKindVerificationRequired:
		status = http.StatusForbidden
		extra["needsVerification"] = true
	case models.LoginKindAccountLocked:
		status = http.StatusLocked
		extra["accountLocked"] = true
		if denied.LockoutEnd != nil {
			extra["lockoutEnd"] = denied.LockoutEnd.UTC().Format(time.RFC3339)
		}
	default:
		if denied.RemainingAttempts != nil {
			extra["remainingAttempts"] = *denied.RemainingAttempts
		}
	}

	httpx.WriteFieldError(w, status, denied.Kind, denied.Message(), denied.Field, extra)
}

// Logout handles POST /auth/logout. Clearing the cookie is the whole
// operation; it succeeds regardless of session state.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.cookieConfig)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		httpx.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	_, err := h.service.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		// Conflicts and weak passwords get the same generic accepted response,
		// so registration cannot be used to probe which emails exist
		if errors.Is(err, models.ErrConflict) || strings.Contains(err.Error(), "invalid password") {
			writeRegistrationAccepted(w)
			return
		}
		if errors.Is(err, models.ErrBadRequest) {
			httpx.WriteBadRequest(w, "Invalid registration request")
			return
		}
		httpx.WriteInternalError(w, "Internal server error")
		return
	}

	writeRegistrationAccepted(w)
}

func writeRegistrationAccepted(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "Registration received. If the email is not already registered, you will receive a confirmation email.",
	})
}

// VerifyEmail handles POST /auth/verify-email
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		httpx.WriteBadRequest(w, err.Error())
		return
	}

	if _, err := h.verificationSvc.VerifyEmail(r.Context(), req.Token); err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			httpx.WriteUnauthorized(w, "Invalid or expired verification token")
			return
		}
		httpx.WriteInternalError(w, "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Email verified successfully. Please log in.",
	})
}

// ResendVerification handles POST /auth/resend-verification.
// Always 202 with a generic message to prevent enumeration.
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req ResendVerificationRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		httpx.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	_ = h.verificationSvc.ResendVerification(r.Context(), req.Email)

	httpx.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message": "If an account exists with this email, a verification email will be sent.",
	})
}

// Me handles GET /auth/me (requires session middleware)
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		httpx.WriteUnauthorized(w, "Authentication required")
		return
	}

	user, err := h.service.Me(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			httpx.WriteUnauthorized(w, "Authentication required")
			return
		}
		httpx.WriteInternalError(w, "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"user": user})
}
