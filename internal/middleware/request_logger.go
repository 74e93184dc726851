package middleware

import (
	"time"

	"shoporder/internal/logger"
	"shoporder/internal/metrics"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// 1リクエスト1行のアクセスログと処理時間
func RequestLogger(log *logger.Logger, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				//echoのHTTPErrorなどをここでレスポンスにする
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			elapsed := time.Since(start)
			m.ObserveRequest(req.Method, c.Path(), status, elapsed)

			if log == nil {
				return nil
			}
			level := zerolog.InfoLevel
			switch {
			case status >= 500:
				level = zerolog.ErrorLevel
			case status >= 400:
				level = zerolog.WarnLevel
			}
			log.Event(req.Context(), level).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("route", c.Path()).
				Int("status", status).
				Int64("duration_ms", elapsed.Milliseconds()).
				Msg("request.complete")
			return nil
		}
	}
}
