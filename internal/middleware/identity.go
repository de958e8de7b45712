package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// AccountID returns the tenant set by JWTAuth, or false on routes that
// are not authenticated.
func AccountID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(KeyAccountID).(uint64)
	return id, ok && id > 0
}

// UserID returns the authenticated user, or false.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(KeyUserID).(uint64)
	return id, ok && id > 0
}

// identity renders a key fragment for rate limiting and caching.
func identity(id uint64, ok bool) string {
	if !ok {
		return "anon"
	}
	return strconv.FormatUint(id, 10)
}
