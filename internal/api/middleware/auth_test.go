package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/farmbe-store/internal/auth"
	"github.com/example/farmbe-store/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key", 15*time.Minute)
}

// captureClaims returns a handler that records the claims it sees.
func captureClaims(dst **auth.Claims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := GetUserFromContext(r.Context()); ok {
			*dst = claims
		}
		w.WriteHeader(http.StatusOK)
	})
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

// ============================================
// AuthMiddleware Tests
// ============================================

func TestAuthMiddleware_ValidToken_Header(t *testing.T) {
	jwtService := newTestJWTService()
	token, _, err := jwtService.GenerateAccessToken("Ravi", domain.RoleFarmer)
	require.NoError(t, err)

	var captured *auth.Claims
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	AuthMiddleware(jwtService)(captureClaims(&captured)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "Ravi", captured.Name)
	assert.Equal(t, domain.RoleFarmer, captured.Role)
}

func TestAuthMiddleware_ValidToken_Cookie(t *testing.T) {
	jwtService := newTestJWTService()
	token, _, err := jwtService.GenerateAccessToken("Sai PG Stays", domain.RolePG)
	require.NoError(t, err)

	var captured *auth.Claims
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: token})
	rec := httptest.NewRecorder()

	AuthMiddleware(jwtService)(captureClaims(&captured)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, domain.RolePG, captured.Role)
}

func TestAuthMiddleware_ValidToken_QueryParam(t *testing.T) {
	jwtService := newTestJWTService()
	token, _, err := jwtService.GenerateAccessToken("Hub Logistics", domain.RoleMiddleman)
	require.NoError(t, err)

	var captured *auth.Claims
	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	rec := httptest.NewRecorder()

	AuthMiddleware(jwtService)(captureClaims(&captured)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, domain.RoleMiddleman, captured.Role)
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	var captured *auth.Claims
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()

	AuthMiddleware(newTestJWTService())(captureClaims(&captured)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", errorBody(t, rec))
	assert.Nil(t, captured)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "invalid-token"},
		{"wrong signature", func() string {
			other := auth.NewJWTService("another-secret", 15*time.Minute)
			token, _, _ := other.GenerateAccessToken("Ravi", domain.RoleFarmer)
			return token
		}()},
		{"expired", func() string {
			short := auth.NewJWTService("test-secret-key", -time.Minute)
			token, _, _ := short.GenerateAccessToken("Ravi", domain.RoleFarmer)
			return token
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured *auth.Claims
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()

			AuthMiddleware(newTestJWTService())(captureClaims(&captured)).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Nil(t, captured)
		})
	}
}

func TestAuthMiddleware_CookieTakesPrecedence(t *testing.T) {
	jwtService := newTestJWTService()
	cookieToken, _, err := jwtService.GenerateAccessToken("Ravi", domain.RoleFarmer)
	require.NoError(t, err)
	headerToken, _, err := jwtService.GenerateAccessToken("Sai PG Stays", domain.RolePG)
	require.NoError(t, err)

	var captured *auth.Claims
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: cookieToken})
	req.Header.Set("Authorization", "Bearer "+headerToken)
	rec := httptest.NewRecorder()

	AuthMiddleware(jwtService)(captureClaims(&captured)).ServeHTTP(rec, req)

	require.NotNil(t, captured)
	assert.Equal(t, "Ravi", captured.Name)
}

// ============================================
// RequireRole Tests
// ============================================

func requestAs(role domain.Role) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/inventory", nil)
	return req.WithContext(WithUser(req.Context(), &auth.Claims{Name: "someone", Role: role}))
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name    string
		allowed []domain.Role
		role    domain.Role
		want    int
	}{
		{"has role", []domain.Role{domain.RoleFarmer}, domain.RoleFarmer, http.StatusOK},
		{"has alternate role", []domain.Role{domain.RoleFarmer, domain.RoleMiddleman}, domain.RoleMiddleman, http.StatusOK},
		{"wrong role", []domain.Role{domain.RoleFarmer}, domain.RolePG, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RequireRole(tt.allowed...)(ok).ServeHTTP(rec, requestAs(tt.role))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireRole_NoClaims(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	rec := httptest.NewRecorder()

	RequireRole(domain.RoleFarmer)(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ============================================
// Context Helper Tests
// ============================================

func TestGetUserFromContext(t *testing.T) {
	claims := &auth.Claims{Name: "Ravi", Role: domain.RoleFarmer}

	got, ok := GetUserFromContext(WithUser(context.Background(), claims))
	assert.True(t, ok)
	assert.Same(t, claims, got)

	_, ok = GetUserFromContext(context.Background())
	assert.False(t, ok)
}
