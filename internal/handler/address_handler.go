package handler

import (
	"net/http"

	"shoporder/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AddressHandler struct {
	responder
	uc *usecase.AddressUsecase
}

func NewAddressHandler(uc *usecase.AddressUsecase, opts Options) *AddressHandler {
	return &AddressHandler{responder: newResponder(opts), uc: uc}
}

func (h *AddressHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	g := e.Group("/addresses", guards.User...)
	g.GET("", h.list)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/default", h.setDefault)
}

func (h *AddressHandler) list(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	list, err := h.uc.List(c.Request().Context(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "", list)
}

func (h *AddressHandler) create(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req usecase.AddressCreateRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	created, err := h.uc.Create(c.Request().Context(), userID, req)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusCreated, "address created", created)
}

func (h *AddressHandler) update(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req usecase.AddressUpdateRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	if err := h.uc.Update(c.Request().Context(), userID, id, req); err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "updated", nil)
}

func (h *AddressHandler) delete(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.uc.Delete(c.Request().Context(), userID, id); err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "deleted", nil)
}

func (h *AddressHandler) setDefault(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.uc.SetDefault(c.Request().Context(), userID, id); err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "default set", nil)
}
