package handler

import (
	"fmt"
	"net/http"

	"shoporder/internal/infra/realtime"
	"shoporder/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	responder
	uc  *usecase.AdminOrderUsecase
	hub *realtime.Hub
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase, hub *realtime.Hub, opts Options) *AdminOrderHandler {
	return &AdminOrderHandler{responder: newResponder(opts), uc: uc, hub: hub}
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	g := e.Group("/admin", guards.Admin...)
	g.GET("/orders", h.list)
	g.GET("/orders/statistics", h.statistics)
	g.GET("/orders/export", h.export)
	g.GET("/dashboard", h.dashboard)
	if h.hub != nil {
		g.GET("/orders/feed", h.feed)
	}
}

func (h *AdminOrderHandler) listInput(c echo.Context) (usecase.AdminOrderListInput, error) {
	page, err := queryInt(c, "page")
	if err != nil {
		return usecase.AdminOrderListInput{}, err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return usecase.AdminOrderListInput{}, err
	}
	return usecase.AdminOrderListInput{
		Page:          page,
		Limit:         limit,
		Status:        c.QueryParam("status"),
		PaymentStatus: c.QueryParam("payment_status"),
		OrderType:     c.QueryParam("order_type"),
		Keyword:       c.QueryParam("keyword"),
		StartDate:     c.QueryParam("start_date"),
		EndDate:       c.QueryParam("end_date"),
	}, nil
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	in, err := h.listInput(c)
	if err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.List(c.Request().Context(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "", out)
}

func (h *AdminOrderHandler) statistics(c echo.Context) error {
	out, err := h.uc.Statistics(c.Request().Context(), c.QueryParam("start_date"), c.QueryParam("end_date"))
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "", out)
}

func (h *AdminOrderHandler) dashboard(c echo.Context) error {
	out, err := h.uc.Dashboard(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "", out)
}

// 一覧と同じ条件でファイルにする
func (h *AdminOrderHandler) export(c echo.Context) error {
	in, err := h.listInput(c)
	if err != nil {
		return h.fail(c, err)
	}
	contentType, ext := h.uc.ExportContentType()

	//最初のWriteで200が確定する。それまではJSONのエラーを返せる
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, contentType)
	res.Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=orders.%s", ext))
	if err := h.uc.Export(c.Request().Context(), in, res); err != nil {
		if res.Committed {
			h.log.Error(c.Request().Context(), "export aborted", err)
			return nil
		}
		res.Header().Del(echo.HeaderContentDisposition)
		return h.fail(c, err)
	}
	return nil
}

func (h *AdminOrderHandler) feed(c echo.Context) error {
	if err := h.hub.ServeWS(c.Response(), c.Request()); err != nil {
		h.log.Warn(c.Request().Context(), "websocket upgrade", err)
	}
	return nil
}
