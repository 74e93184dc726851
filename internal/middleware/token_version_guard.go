package middleware

import (
	"errors"
	"net/http"

	"shoporder/internal/logger"
	"shoporder/internal/repository"

	"github.com/labstack/echo/v4"
)

// JWTのtvがDBのtoken_versionと一致するか確認する。停止ユーザーは403。
// roleはDBの値で上書きする（降格はすぐ効く）
func TokenVersionGuard(users repository.UserRepository, log *logger.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = logger.Nop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := UserID(c)
			if !ok {
				return unauthorized(c)
			}
			tv, ok := c.Get(CtxTokenVersionKey).(int)
			if !ok {
				return unauthorized(c)
			}

			ctx := c.Request().Context()
			user, err := users.FindByID(ctx, userID)
			if err != nil {
				if !errors.Is(err, repository.ErrNotFound) {
					log.Error(ctx, "token version lookup failed", err)
				}
				return unauthorized(c)
			}
			if user.TokenVersion != tv {
				return unauthorized(c)
			}
			if !user.IsActive {
				return c.JSON(http.StatusForbidden, errorJSON("account disabled"))
			}

			c.Set(CtxUserRoleKey, string(user.Role))
			c.SetRequest(c.Request().WithContext(log.WithUserID(ctx, userID)))
			return next(c)
		}
	}
}
