package adaptor

import (
	"encoding/json"
	"net/http"
	"time"

	"guidehub/internal/dto/request"
	"guidehub/internal/dto/response"
	"guidehub/internal/usecase"
	"guidehub/pkg/utils"

	"go.uber.org/zap"
)

type AuthHandler struct {
	service usecase.AuthService
	users   usecase.UserService
	cookie  utils.JWTConfig
	log     *zap.Logger
}

func NewAuthHandler(service usecase.AuthService, users usecase.UserService, cookie utils.JWTConfig, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		users:   users,
		cookie:  cookie,
		log:     log.With(zap.String("handler", "auth")),
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	resp, err := h.service.Register(r.Context(), &req, sessionMeta(r))
	if err != nil {
		handleServiceError(w, h.log, err, "register")
		return
	}

	h.setCookie(w, resp)
	utils.ResponseCreated(w, "Registration successful", resp)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	resp, err := h.service.Login(r.Context(), &req, sessionMeta(r))
	if err != nil {
		handleServiceError(w, h.log, err, "login")
		return
	}

	h.setCookie(w, resp)
	utils.ResponseSuccess(w, "Login successful", resp)
}

// Logout handles POST /api/auth/logout (protected)
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := utils.GetSessionIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Logout(r.Context(), sessionID); err != nil {
		handleServiceError(w, h.log, err, "logout")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookie.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	utils.ResponseSuccess(w, "Logout successful", nil)
}

// Me handles GET /api/auth/me (protected)
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	profile, err := h.users.GetProfile(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.log, err, "get current user")
		return
	}

	utils.ResponseSuccess(w, "success", map[string]any{"user": profile})
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, resp *response.AuthResponse) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.CookieName,
		Value:    resp.Token,
		Path:     "/",
		Expires:  resp.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookie.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionMeta(r *http.Request) request.SessionMeta {
	return request.SessionMeta{
		UserAgent: r.UserAgent(),
		IPAddress: r.RemoteAddr,
	}
}
