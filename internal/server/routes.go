package server

import (
	"shoporder/internal/handler"
	"shoporder/internal/middleware"

	"github.com/labstack/echo/v4"
)

func registerRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", healthz(d.DB))
	e.GET("/metrics", metricsHandler(d.Gatherer))

	user := []echo.MiddlewareFunc{
		middleware.AuthJWT(d.Config.JWT.Secret),
		middleware.TokenVersionGuard(d.Users, d.Logger),
	}
	admin := append(append([]echo.MiddlewareFunc{}, user...), middleware.AdminRoleGuard())
	guards := handler.Guards{User: user, Admin: admin}

	h := d.Handlers
	if h.Auth != nil {
		h.Auth.RegisterRoutes(e, guards)
	}
	if h.Order != nil {
		h.Order.RegisterRoutes(e, guards)
	}
	if h.AdminOrder != nil {
		h.AdminOrder.RegisterRoutes(e, guards)
	}
	if h.Cart != nil {
		h.Cart.RegisterRoutes(e, guards)
	}
	if h.Product != nil {
		h.Product.RegisterRoutes(e, guards)
	}
	if h.Category != nil {
		h.Category.RegisterRoutes(e, guards)
	}
	if h.Shop != nil {
		h.Shop.RegisterRoutes(e, guards)
	}
	if h.Address != nil {
		h.Address.RegisterRoutes(e, guards)
	}
	if h.AuditLog != nil {
		h.AuditLog.RegisterRoutes(e, guards)
	}
}
