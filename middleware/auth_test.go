package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"call_center_app_go/models"
	"call_center_app_go/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret-0123456789abcdef"

func issue(t *testing.T, secret, role string, ttl time.Duration) string {
	t.Helper()
	phone := "9876543210"
	token, err := services.IssueToken(&models.User{
		ID:                  "user-1",
		Email:               "agent@example.com",
		AssignedPhoneNumber: &phone,
		Role:                role,
	}, secret, ttl)
	require.NoError(t, err)
	return token
}

func runAuth(t *testing.T, header string) (*services.Claims, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/calls", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var seen *services.Claims
	err := RequireAuth(testSecret)(func(c echo.Context) error {
		seen = GetCurrentClaims(c)
		return c.NoContent(http.StatusOK)
	})(c)
	return seen, err
}

func TestRequireAuth(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		_, err := runAuth(t, "")
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
		assert.Equal(t, "Access denied - No token provided", he.Message)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		_, err := runAuth(t, "Basic abc")
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnauthorized, he.Code)
	})

	t.Run("foreign secret", func(t *testing.T) {
		_, err := runAuth(t, "Bearer "+issue(t, "another-secret-0123456789abcdefghij", models.RoleUser, time.Hour))
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, he.Code)
		assert.Equal(t, "Invalid or expired token", he.Message)
	})

	t.Run("expired", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, services.Claims{
			UserID: "user-1",
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(past),
				ExpiresAt: jwt.NewNumericDate(past.Add(time.Minute)),
			},
		})
		signed, err := token.SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = runAuth(t, "Bearer "+signed)
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, he.Code)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := runAuth(t, "Bearer not.a.jwt")
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusForbidden, he.Code)
	})

	t.Run("valid", func(t *testing.T) {
		claims, err := runAuth(t, "Bearer "+issue(t, testSecret, models.RoleUser, time.Hour))
		require.NoError(t, err)
		require.NotNil(t, claims)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, "agent@example.com", claims.Email)
		assert.Equal(t, "9876543210", claims.PhoneNumber)
	})
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer  abc "))
	assert.Equal(t, "", bearerToken("Bearer"))
	assert.Equal(t, "", bearerToken("Token abc"))
}
