package handler

import (
	"net/http"

	"shoporder/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	responder
	uc *usecase.CartUsecase
}

func NewCartHandler(uc *usecase.CartUsecase, opts Options) *CartHandler {
	return &CartHandler{responder: newResponder(opts), uc: uc}
}

type addCartRequest struct {
	ProductID int64          `json:"product_id" validate:"required,gt=0"`
	Quantity  int64          `json:"quantity" validate:"required,gte=1,lte=999"`
	Specs     map[string]any `json:"specs"`
}

type updateCartRequest struct {
	// 0以下なら削除
	Quantity int64 `json:"quantity" validate:"lte=999"`
}

func (h *CartHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	g := e.Group("/cart", guards.User...)
	g.GET("", h.get)
	g.GET("/count", h.count)
	g.POST("/add", h.add)
	g.PATCH("/item/:id", h.update)
	g.DELETE("/item/:id", h.remove)
	g.DELETE("/clear", h.clear)
}

func (h *CartHandler) get(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.GetCart(c.Request().Context(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "", out)
}

func (h *CartHandler) count(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	n, err := h.uc.Count(c.Request().Context(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "", map[string]int64{"count": n})
}

func (h *CartHandler) add(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req addCartRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	out, err := h.uc.AddItem(c.Request().Context(), userID, usecase.AddCartInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Specs:     req.Specs,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "added to cart", out)
}

func (h *CartHandler) update(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req updateCartRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	out, err := h.uc.UpdateItemQuantity(c.Request().Context(), userID, id, req.Quantity)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "cart updated", out)
}

func (h *CartHandler) remove(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	out, err := h.uc.RemoveItem(c.Request().Context(), userID, id)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "item removed", out)
}

func (h *CartHandler) clear(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.uc.Clear(c.Request().Context(), userID); err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "cart cleared", nil)
}
