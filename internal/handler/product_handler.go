package handler

import (
	"net/http"
	"strconv"

	"shoporder/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const defaultFeaturedLimit = 8

// /products の公開APIと管理API
type ProductHandler struct {
	responder
	uc *usecase.ProductUsecase
}

func NewProductHandler(uc *usecase.ProductUsecase, opts Options) *ProductHandler {
	return &ProductHandler{responder: newResponder(opts), uc: uc}
}

type productRequest struct {
	CategoryID    *int64          `json:"category_id" validate:"omitempty,gt=0"`
	Name          string          `json:"name" validate:"required,max=255"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	StockQuantity int64           `json:"stock_quantity" validate:"gte=0"`
	IsAvailable   *bool           `json:"is_available"`
	IsFeatured    bool            `json:"is_featured"`
	SortOrder     int             `json:"sort_order"`
	Images        []string        `json:"images" validate:"max=20,dive,max=500"`
}

func (r productRequest) input() usecase.AdminProductInput {
	available := true
	if r.IsAvailable != nil {
		available = *r.IsAvailable
	}
	return usecase.AdminProductInput{
		CategoryID:    r.CategoryID,
		Name:          r.Name,
		Description:   r.Description,
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice,
		StockQuantity: r.StockQuantity,
		IsAvailable:   available,
		IsFeatured:    r.IsFeatured,
		SortOrder:     r.SortOrder,
		Images:        r.Images,
	}
}

type adjustStockRequest struct {
	Quantity  int64  `json:"quantity" validate:"required,gte=1"`
	Operation string `json:"operation" validate:"required,oneof=increase decrease"`
	Reason    string `json:"reason" validate:"max=255"`
}

func (h *ProductHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	e.GET("/products", h.list)
	e.GET("/products/featured", h.featured)
	e.GET("/products/:id", h.detail)

	e.POST("/products", h.create, guards.Admin...)
	e.PUT("/products/:id", h.update, guards.Admin...)
	e.DELETE("/products/:id", h.delete, guards.Admin...)
	e.PATCH("/products/:id/stock", h.adjustStock, guards.Admin...)
}

func (h *ProductHandler) list(c echo.Context) error {
	page, err := queryInt(c, "page")
	if err != nil {
		return h.fail(c, err)
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return h.fail(c, err)
	}
	featured, err := queryBool(c, "featured")
	if err != nil {
		return h.fail(c, err)
	}
	var categoryID *int64
	if v := c.QueryParam("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return h.badRequest(c, "invalid category_id")
		}
		categoryID = &id
	}

	out, err := h.uc.ListPublicProducts(c.Request().Context(), usecase.ListProductsInput{
		Page:       page,
		Limit:      limit,
		Q:          c.QueryParam("q"),
		CategoryID: categoryID,
		Featured:   featured,
		Sort:       c.QueryParam("sort"),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "", out)
}

func (h *ProductHandler) featured(c echo.Context) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return h.fail(c, err)
	}
	if limit <= 0 || limit > 50 {
		limit = defaultFeaturedLimit
	}
	out, err := h.uc.ListFeatured(c.Request().Context(), limit)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "", out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	p, err := h.uc.GetProductDetail(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "", p)
}

func (h *ProductHandler) create(c echo.Context) error {
	adminID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req productRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	p, err := h.uc.AdminCreateProduct(c.Request().Context(), adminID, req.input())
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusCreated, "product created", p)
}

func (h *ProductHandler) update(c echo.Context) error {
	adminID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req productRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	p, err := h.uc.AdminUpdateProduct(c.Request().Context(), adminID, id, req.input())
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "product updated", p)
}

func (h *ProductHandler) delete(c echo.Context) error {
	adminID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.uc.AdminDeleteProduct(c.Request().Context(), adminID, id); err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "product deleted", nil)
}

func (h *ProductHandler) adjustStock(c echo.Context) error {
	adminID, err := userIDFrom(c)
	if err != nil {
		return h.fail(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req adjustStockRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	p, err := h.uc.AdjustStock(c.Request().Context(), adminID, id, usecase.AdjustStockInput{
		Quantity:  req.Quantity,
		Operation: req.Operation,
		Reason:    req.Reason,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "stock updated", p)
}
