package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func testClaims() *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		TenantID: "tenant-1",
		Scopes:   []string{"conversations:write"},
	}
}

func callAuth(token string) (*httptest.ResponseRecorder, *http.Request) {
	var captured *http.Request
	handler := Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, captured
}

func TestAuthValidToken(t *testing.T) {
	t.Parallel()

	rec, captured := callAuth(signToken(t, testSecret, testClaims()))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)

	ctx := captured.Context()
	assert.Equal(t, "user-1", GetUserID(ctx))
	assert.Equal(t, "tenant-1", GetTenantID(ctx))
	assert.True(t, HasScope(ctx, "conversations:write"))
	assert.False(t, HasScope(ctx, "admin"))
}

func TestAuthMissingHeader(t *testing.T) {
	t.Parallel()

	rec, _ := callAuth("")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthWrongSecret(t *testing.T) {
	t.Parallel()

	rec, _ := callAuth(signToken(t, "other-secret", testClaims()))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthExpiredToken(t *testing.T) {
	t.Parallel()

	claims := testClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	rec, _ := callAuth(signToken(t, testSecret, claims))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireScope(t *testing.T) {
	t.Parallel()

	handler := Auth(testSecret)(RequireScope("admin")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, testClaims()))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
