package handler

import (
	"net/http"

	"shoporder/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ShopHandler struct {
	responder
	uc *usecase.ShopUsecase
}

func NewShopHandler(uc *usecase.ShopUsecase, opts Options) *ShopHandler {
	return &ShopHandler{responder: newResponder(opts), uc: uc}
}

type shopInfoRequest struct {
	Name           string          `json:"name" validate:"required,max=100"`
	Phone          string          `json:"phone" validate:"max=30"`
	Address        string          `json:"address" validate:"max=500"`
	OpeningHours   string          `json:"opening_hours" validate:"max=20"`
	IsOpen         bool            `json:"is_open"`
	Announcement   string          `json:"announcement" validate:"max=2000"`
	MinOrderAmount decimal.Decimal `json:"min_order_amount"`
	DeliveryFee    decimal.Decimal `json:"delivery_fee"`
}

type announcementRequest struct {
	Announcement string `json:"announcement" validate:"max=2000"`
}

func (h *ShopHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	g := e.Group("/shop")
	g.GET("/info", h.info)
	g.GET("/check-open", h.checkOpen)
	g.GET("/announcement", h.announcement)

	g.PUT("/info", h.update, guards.Admin...)
	g.PUT("/announcement", h.updateAnnouncement, guards.Admin...)
	g.PATCH("/toggle-open", h.toggleOpen, guards.Admin...)
}

func (h *ShopHandler) info(c echo.Context) error {
	out, err := h.uc.GetInfo(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "", out)
}

func (h *ShopHandler) checkOpen(c echo.Context) error {
	out, err := h.uc.CheckOpen(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "", out)
}

func (h *ShopHandler) announcement(c echo.Context) error {
	out, err := h.uc.GetAnnouncement(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "", out)
}

func (h *ShopHandler) update(c echo.Context) error {
	adminID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req shopInfoRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.Update(c.Request().Context(), adminID, usecase.ShopInfoInput{
		Name:           req.Name,
		Phone:          req.Phone,
		Address:        req.Address,
		OpeningHours:   req.OpeningHours,
		IsOpen:         req.IsOpen,
		Announcement:   req.Announcement,
		MinOrderAmount: req.MinOrderAmount,
		DeliveryFee:    req.DeliveryFee,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "shop updated", out)
}

func (h *ShopHandler) updateAnnouncement(c echo.Context) error {
	adminID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req announcementRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.UpdateAnnouncement(c.Request().Context(), adminID, req.Announcement)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "announcement updated", out)
}

func (h *ShopHandler) toggleOpen(c echo.Context) error {
	adminID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.ToggleOpen(c.Request().Context(), adminID)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "shop status updated", out)
}
