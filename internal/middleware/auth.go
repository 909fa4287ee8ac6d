package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/izinapp/izin-api/internal/tokens"
)

const claimsKey = "auth_claims"

// Auth verifies the Authorization bearer token and exposes its claims to
// downstream handlers. It only reads the access secret; refresh tokens are
// never accepted here.
type Auth struct {
	AccessSecret []byte
}

func NewAuth(accessSecret []byte) *Auth {
	return &Auth{AccessSecret: accessSecret}
}

func (m *Auth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.ParseAccess(token, m.AccessSecret)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set(claimsKey, claims)
		return next(c)
	}
}

func (m *Auth) RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFromContext(c)
			if claims == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}
			for _, role := range roles {
				if claims.Role == role {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}

func ClaimsFromContext(c echo.Context) *tokens.AccessClaims {
	claims, _ := c.Get(claimsKey).(*tokens.AccessClaims)
	return claims
}
