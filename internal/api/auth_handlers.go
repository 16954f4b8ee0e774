package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/example/farmbe-store/internal/api/middleware"
	"github.com/example/farmbe-store/internal/auth"
	"github.com/example/farmbe-store/internal/domain"
	"go.uber.org/zap"
)

// AuthHandlers issues role sessions behind the shared demo passcode.
type AuthHandlers struct {
	jwtService *auth.JWTService
	gate       *auth.PasscodeGate
	logger     *zap.Logger
}

// NewAuthHandlers creates a new AuthHandlers instance
func NewAuthHandlers(jwtService *auth.JWTService, gate *auth.PasscodeGate, logger *zap.Logger) *AuthHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandlers{
		jwtService: jwtService,
		gate:       gate,
		logger:     logger,
	}
}

// SessionRequest represents the session request body
type SessionRequest struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	Passcode string `json:"passcode"`
}

// SessionResponse represents the issued session
type SessionResponse struct {
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
	Token     string      `json:"token,omitempty"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// CreateSession handles sign-in for one of the three roles
func (h *AuthHandlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := decodeBody(r, &req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.gate.Verify(req.Passcode); err != nil {
		h.logger.Warn("session rejected", zap.String("name", req.Name), zap.String("role", string(role)))
		respondJSONError(w, "invalid passcode", http.StatusUnauthorized)
		return
	}

	token, expiresAt, err := h.jwtService.GenerateAccessToken(req.Name, role)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			respondJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to sign session token", zap.Error(err))
		respondJSONError(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	h.logger.Info("session created", zap.String("name", req.Name), zap.String("role", string(role)))
	respondJSON(w, http.StatusCreated, SessionResponse{
		Name:      req.Name,
		Role:      role,
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// CurrentSession returns the caller's claims
func (h *AuthHandlers) CurrentSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	resp := SessionResponse{Name: claims.Name, Role: claims.Role}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time
	}
	respondJSON(w, http.StatusOK, resp)
}

// DeleteSession clears the session cookie
func (h *AuthHandlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}
