package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
)

// roleが無ければ401、許可リストに無ければ403
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxUserRoleKey).(string)
			if role == "" {
				return unauthorized(c)
			}
			if !slices.Contains(roles, role) {
				return c.JSON(http.StatusForbidden, errorJSON("admin only"))
			}
			return next(c)
		}
	}
}

func AdminRoleGuard() echo.MiddlewareFunc {
	return RequireRole(roleAdmin)
}
