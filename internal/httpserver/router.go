package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/izinapp/izin-api/internal/middleware"
)

type Deps struct {
	AuthHandler  *AuthHTTP
	AccessSecret []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMw := middleware.NewAuth(d.AccessSecret)

	auth := e.Group("/auth")
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh-token", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)

	admin := auth.Group("", authMw.RequireAuth, authMw.RequireRole("admin"))
	admin.POST("/users/:id/revoke-tokens", d.AuthHandler.RevokeTokens)
}
