package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/lure/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-32-characters-long!!"

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims models.SessionClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(role string) models.SessionClaims {
	now := time.Now()
	return models.SessionClaims{
		Email: "admin@example.com",
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestTokenVerifier_Verify(t *testing.T) {
	v := NewTokenVerifier(testSecret)

	t.Run("valid token", func(t *testing.T) {
		claims, err := v.Verify(signToken(t, testSecret, jwt.SigningMethodHS256, validClaims(models.RoleAdmin)))
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.Subject)
		assert.Equal(t, models.RoleAdmin, claims.Role)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := v.Verify(signToken(t, "another-secret-that-is-long-enough", jwt.SigningMethodHS256, validClaims(models.RoleAdmin)))
		assert.Error(t, err)
	})

	t.Run("other hmac algorithm", func(t *testing.T) {
		_, err := v.Verify(signToken(t, testSecret, jwt.SigningMethodHS512, validClaims(models.RoleAdmin)))
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		claims := validClaims(models.RoleAdmin)
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
		_, err := v.Verify(signToken(t, testSecret, jwt.SigningMethodHS256, claims))
		assert.Error(t, err)
	})

	t.Run("no expiry", func(t *testing.T) {
		claims := validClaims(models.RoleAdmin)
		claims.ExpiresAt = nil
		_, err := v.Verify(signToken(t, testSecret, jwt.SigningMethodHS256, claims))
		assert.Error(t, err)
	})

	t.Run("no subject", func(t *testing.T) {
		claims := validClaims(models.RoleAdmin)
		claims.Subject = ""
		_, err := v.Verify(signToken(t, testSecret, jwt.SigningMethodHS256, claims))
		assert.ErrorIs(t, err, ErrMissingSubject)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify("not.a.jwt")
		assert.Error(t, err)
	})
}

func protectedHandler(v *TokenVerifier) http.Handler {
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		w.Header().Set("X-Subject", claims.Subject)
		w.WriteHeader(http.StatusOK)
	})
	return RequireAuth(v)(RequireRole(models.RoleAdmin)(final))
}

func TestRequireAuthAndRole(t *testing.T) {
	v := NewTokenVerifier(testSecret)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"non-admin role", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, validClaims("viewer")), http.StatusForbidden},
		{"admin", "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, validClaims(models.RoleAdmin)), http.StatusOK},
		{"lowercase scheme", "bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, validClaims(models.RoleAdmin)), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/campaigns", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			protectedHandler(v).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "user-123", w.Header().Get("X-Subject"))
			} else {
				assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestRequireRole_WithoutClaims(t *testing.T) {
	handler := RequireRole(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
