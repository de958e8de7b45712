package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-reservation-engine/internal/handler"
	"github.com/iliyamo/hotel-reservation-engine/internal/middleware"
	"github.com/iliyamo/hotel-reservation-engine/internal/model"
)

// RegisterRoutes registers the unauthenticated probes.  ready reports
// store health.
func RegisterRoutes(e *echo.Echo, ready echo.HandlerFunc) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", ready)
}

// RegisterAuth registers login and token exchange under /api/v1/auth and
// the protected identity endpoints under /api/v1.  Creating operators is
// reserved to admins of the same account.  limit, when non-nil, throttles
// the unauthenticated endpoints.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group("/api/v1/auth", optional(limit)...)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// logout accepts a refresh token without a session
	g.POST("/logout", a.Logout)

	auth := e.Group("/api/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.POST("/users", a.CreateUser, middleware.RequireRole(model.RoleAdmin))
}

func optional(mw echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if mw == nil {
		return nil
	}
	return []echo.MiddlewareFunc{mw}
}
