package handler

import (
	"net/http"

	"shoporder/internal/middleware"
	"shoporder/internal/usecase"

	"github.com/labstack/echo/v4"
)

const idempotencyHeader = "X-Idempotency-Key"

type OrderHandler struct {
	responder
	uc    *usecase.OrderUsecase
	admin *usecase.AdminOrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase, admin *usecase.AdminOrderUsecase, opts Options) *OrderHandler {
	return &OrderHandler{responder: newResponder(opts), uc: uc, admin: admin}
}

type createOrderItemRequest struct {
	ProductID   int64          `json:"product_id" validate:"required,gt=0"`
	Quantity    int64          `json:"quantity" validate:"required,gte=1"`
	Notes       string         `json:"notes" validate:"max=500"`
	Specs       map[string]any `json:"specs"`
	UpdateStock *bool          `json:"update_stock"`
}

type createOrderRequest struct {
	Items           []createOrderItemRequest `json:"items" validate:"required,min=1,max=100,dive"`
	OrderType       string                   `json:"order_type" validate:"omitempty,oneof=dine_in pickup delivery"`
	DeliveryAddress string                   `json:"delivery_address" validate:"max=500"`
	TableNumber     string                   `json:"table_number" validate:"max=20"`
	ContactName     string                   `json:"contact_name" validate:"max=100"`
	ContactPhone    string                   `json:"contact_phone" validate:"max=30"`
	Notes           string                   `json:"notes" validate:"max=1000"`
	CartItemIDs     []int64                  `json:"cart_item_ids" validate:"max=100"`
	AddressID       int64                    `json:"address_id" validate:"gte=0"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}

type orderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type paymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	g := e.Group("/orders", guards.User...)
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.detail)
	g.POST("/:id/cancel", h.cancel)
	g.POST("/:id/pay", h.pay)
	g.DELETE("/:id", h.delete)

	//管理者のみ
	g.PATCH("/:id/status", h.updateStatus, middleware.AdminRoleGuard())
	g.PATCH("/:id/payment", h.updatePayment, middleware.AdminRoleGuard())
}

func (h *OrderHandler) create(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}

	var req createOrderRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	in := usecase.CreateOrderInput{
		Items:           make([]usecase.CreateOrderItemInput, 0, len(req.Items)),
		OrderType:       req.OrderType,
		DeliveryAddress: req.DeliveryAddress,
		TableNumber:     req.TableNumber,
		ContactName:     req.ContactName,
		ContactPhone:    req.ContactPhone,
		Notes:           req.Notes,
		CartItemIDs:     req.CartItemIDs,
		AddressID:       req.AddressID,
		//二重送信防止キーはヘッダーから受け取る（bodyには入れない）
		IdempotencyKey: c.Request().Header.Get(idempotencyHeader),
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, usecase.CreateOrderItemInput{
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			Notes:       it.Notes,
			Specs:       it.Specs,
			UpdateStock: it.UpdateStock,
		})
	}

	out, err := h.uc.CreateOrder(c.Request().Context(), userID, in)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusCreated, "order created", map[string]any{"order": out})
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	page, err := queryInt(c, "page")
	if err != nil {
		return h.fail(c, err)
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return h.fail(c, err)
	}

	out, err := h.uc.ListMine(c.Request().Context(), userID, c.QueryParam("status"), page, limit)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "", out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	out, err := h.uc.Get(c.Request().Context(), actor, id)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "", map[string]any{"order": out})
}

func (h *OrderHandler) cancel(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	//bodyは省略可（空ならデフォルトの理由）
	var req cancelOrderRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	out, err := h.uc.Cancel(c.Request().Context(), actor, id, req.Reason)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "order cancelled", out)
}

func (h *OrderHandler) pay(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	out, err := h.uc.Pay(c.Request().Context(), actor, id)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "payment recorded", map[string]any{"order": out})
}

func (h *OrderHandler) delete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}

	if err := h.uc.Delete(c.Request().Context(), actor, id); err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "order deleted", nil)
}

func (h *OrderHandler) updateStatus(c echo.Context) error {
	adminID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req orderStatusRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	out, err := h.admin.UpdateStatus(c.Request().Context(), adminID, id, req.Status)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "status updated", map[string]any{"order": out})
}

func (h *OrderHandler) updatePayment(c echo.Context) error {
	adminID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req paymentStatusRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	out, err := h.admin.UpdatePaymentStatus(c.Request().Context(), adminID, id, req.PaymentStatus)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "payment status updated", map[string]any{"order": out})
}
