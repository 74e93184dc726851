package middleware

import (
	"shoporder/internal/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const CtxRequestIDKey = "request_id"

// X-Request-Idを引き継ぐか新しく振る
func RequestID(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := c.Request().Header.Get(echo.HeaderXRequestID)
			if reqID == "" || len(reqID) > 128 {
				reqID = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, reqID)
			c.Set(CtxRequestIDKey, reqID)

			if log != nil {
				ctx := log.WithRequestID(c.Request().Context(), reqID)
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
}
