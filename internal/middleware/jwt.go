package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-reservation-engine/internal/utils"
)

// Context keys set by JWTAuth.
const (
	KeyUserID    = "user_id"
	KeyAccountID = "account_id"
	KeyRole      = "role"
)

// JWTAuth validates a Bearer access token and stores the user id, the
// account id and the role on the echo context.  The account id is the
// tenant every downstream handler scopes its work to.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(KeyUserID, claims.UserID)
			c.Set(KeyAccountID, claims.AccountID)
			c.Set(KeyRole, claims.Role)
			return next(c)
		}
	}
}
