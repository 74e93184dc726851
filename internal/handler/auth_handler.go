package handler

import (
	"net/http"

	"shoporder/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	responder
	uc *usecase.AuthUsecase
}

func NewAuthHandler(uc *usecase.AuthUsecase, opts Options) *AuthHandler {
	return &AuthHandler{responder: newResponder(opts), uc: uc}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	g := e.Group("/auth")
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.GET("/me", h.me, guards.User...)

	admin := e.Group("/admin/users", guards.Admin...)
	admin.POST("/:id/force-logout", h.forceLogout)
	admin.PATCH("/:id/active", h.setActive)
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func (h *AuthHandler) register(c echo.Context) error {
	var req usecase.AuthRegisterRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.Register(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusCreated, "registered", out)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req usecase.AuthLoginRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.Login(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "logged in", out)
}

func (h *AuthHandler) me(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.Me(c.Request().Context(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "", out)
}

func (h *AuthHandler) forceLogout(c echo.Context) error {
	adminID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	target, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.ForceLogout(c.Request().Context(), adminID, target)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "user logged out", out)
}

func (h *AuthHandler) setActive(c echo.Context) error {
	adminID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	target, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req setActiveRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.SetUserActive(c.Request().Context(), adminID, target, *req.IsActive)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "user updated", out)
}
