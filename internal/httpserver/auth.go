package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/izinapp/izin-api/internal/logging"
	"github.com/izinapp/izin-api/internal/middleware"
	"github.com/izinapp/izin-api/internal/service"
	"github.com/izinapp/izin-api/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
		case errors.Is(err, service.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusUnauthorized, "wrong password")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
		}
	}

	return c.JSON(http.StatusOK, transport.LoginResponse{
		ID:           res.User.ID,
		Email:        res.User.Email,
		Role:         res.User.Role,
		DepartmentID: res.User.DepartmentID,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("refresh_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh token is required")
	}

	pair, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, "refresh token is required")
		case errors.Is(err, service.ErrInvalidToken):
			return echo.NewHTTPError(http.StatusForbidden, "invalid or expired token")
		case errors.Is(err, service.ErrUserNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "refresh failed")
		}
	}

	return c.JSON(http.StatusOK, transport.RefreshResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	var req transport.LogoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("logout_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh token is required")
	}

	if err := h.Svc.Logout(ctx, req.RefreshToken); err != nil && !errors.Is(err, service.ErrValidation) {
		return echo.NewHTTPError(http.StatusInternalServerError, "logout failed")
	}

	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "logged out"})
}

// RevokeTokens is the administrative kill switch for one user's sessions.
// The route is gated by RequireAuth + RequireRole("admin"); the acting
// admin's id lands in the audit trail.
func (h *AuthHTTP) RevokeTokens(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}

	var actorID *uint
	if claims := middleware.ClaimsFromContext(c); claims != nil {
		actorID = &claims.UserID
	}

	affected, err := h.Svc.RevokeAll(ctx, uint(userID), actorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "revocation failed")
	}

	return c.JSON(http.StatusOK, transport.RevokeResponse{Revoked: affected})
}
