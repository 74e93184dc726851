package handler

import (
	"net/http"

	"shoporder/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AuditLogHandler struct {
	responder
	uc *usecase.AuditLogUsecase
}

func NewAuditLogHandler(uc *usecase.AuditLogUsecase, opts Options) *AuditLogHandler {
	return &AuditLogHandler{responder: newResponder(opts), uc: uc}
}

func (h *AuditLogHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	e.GET("/admin/audit-logs", h.list, guards.Admin...)
}

func (h *AuditLogHandler) list(c echo.Context) error {
	page, err := queryInt(c, "page")
	if err != nil {
		return h.fail(c, err)
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return h.fail(c, err)
	}
	actor, err := queryInt(c, "actor_user_id")
	if err != nil {
		return h.fail(c, err)
	}
	resourceID, err := queryInt(c, "resource_id")
	if err != nil {
		return h.fail(c, err)
	}

	out, err := h.uc.List(c.Request().Context(), usecase.AuditLogListInput{
		ActorUserID:  int64(actor),
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resource_type"),
		ResourceID:   int64(resourceID),
		StartDate:    c.QueryParam("start_date"),
		EndDate:      c.QueryParam("end_date"),
		Page:         page,
		Limit:        limit,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return h.ok(c, http.StatusOK, "", out)
}
