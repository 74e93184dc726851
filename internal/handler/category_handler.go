package handler

import (
	"net/http"

	"shoporder/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CategoryHandler struct {
	responder
	uc *usecase.CategoryUsecase
}

func NewCategoryHandler(uc *usecase.CategoryUsecase, opts Options) *CategoryHandler {
	return &CategoryHandler{responder: newResponder(opts), uc: uc}
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	Image       string `json:"image" validate:"max=255"`
	ParentID    *int64 `json:"parent_id" validate:"omitempty,gt=0"`
	SortOrder   int    `json:"sort_order"`
	IsActive    *bool  `json:"is_active"`
}

func (r categoryRequest) input() usecase.CategoryInput {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return usecase.CategoryInput{
		Name:        r.Name,
		Description: r.Description,
		Image:       r.Image,
		ParentID:    r.ParentID,
		SortOrder:   r.SortOrder,
		IsActive:    active,
	}
}

func (h *CategoryHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	e.GET("/categories", h.list)
	e.GET("/admin/categories", h.listAll, guards.Admin...)
	e.POST("/categories", h.create, guards.Admin...)
	e.PUT("/categories/:id", h.update, guards.Admin...)
	e.DELETE("/categories/:id", h.delete, guards.Admin...)
}

func (h *CategoryHandler) list(c echo.Context) error {
	out, err := h.uc.List(c.Request().Context(), false)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "", out)
}

// 非公開のカテゴリも含める
func (h *CategoryHandler) listAll(c echo.Context) error {
	out, err := h.uc.List(c.Request().Context(), true)
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "", out)
}

func (h *CategoryHandler) create(c echo.Context) error {
	var req categoryRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.Create(c.Request().Context(), req.input())
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusCreated, "category created", out)
}

func (h *CategoryHandler) update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var req categoryRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	out, err := h.uc.Update(c.Request().Context(), id, req.input())
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "category updated", out)
}

func (h *CategoryHandler) delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.uc.Delete(c.Request().Context(), id); err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "category deleted", nil)
}
