package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/pdftoolpro/tracking-api/internal/api/middleware"
)

// ctxUserID returns the identity set by middleware.Identify, or "" for
// anonymous callers.
func ctxUserID(c echo.Context) string {
	id, _ := c.Get(middleware.UserIDKey).(string)
	return id
}
