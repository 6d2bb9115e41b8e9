package middleware

import (
	"net/http"
	"strings"

	"call_center_app_go/services"

	"github.com/labstack/echo/v4"
)

const (
	// ContextKeyClaims is the context key for the verified token claims
	ContextKeyClaims = "claims"
)

// RequireAuth is middleware that requires a valid bearer token signed with secret
func RequireAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Access denied - No token provided")
			}

			claims, err := services.ParseToken(token, secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusForbidden, "Invalid or expired token")
			}

			c.Set(ContextKeyClaims, claims)
			return next(c)
		}
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// GetCurrentClaims retrieves the verified claims from context
func GetCurrentClaims(c echo.Context) *services.Claims {
	claims, ok := c.Get(ContextKeyClaims).(*services.Claims)
	if !ok {
		return nil
	}
	return claims
}
