package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"shoporder/internal/domain/model"
	repo "shoporder/internal/repository"
)

const auditLogPageLimit = 50

type AuditLogUsecase struct {
	logs repo.AuditLogRepository
	loc  *time.Location
}

func NewAuditLogUsecase(logs repo.AuditLogRepository, loc *time.Location) *AuditLogUsecase {
	if loc == nil {
		loc = time.Local
	}
	return &AuditLogUsecase{logs: logs, loc: loc}
}

type AuditLogListInput struct {
	ActorUserID  int64
	Action       string
	ResourceType string
	ResourceID   int64
	StartDate    string
	EndDate      string
	Page         int
	Limit        int
}

type AuditLogListOutput struct {
	Items      []model.AuditLog `json:"items"`
	Pagination Pagination       `json:"pagination"`
}

var knownAuditActions = map[model.AuditAction]struct{}{
	model.AuditActionUpdateStock:         {},
	model.AuditActionUpdateOrderStatus:   {},
	model.AuditActionUpdatePaymentStatus: {},
	model.AuditActionDeleteOrder:         {},
	model.AuditActionUpdateShop:          {},
	model.AuditActionForceLogout:         {},
	model.AuditActionSetUserActive:       {},
}

var knownAuditResources = map[model.AuditResourceType]struct{}{
	model.AuditResourceProduct: {},
	model.AuditResourceOrder:   {},
	model.AuditResourceUser:    {},
	model.AuditResourceShop:    {},
}

func (u *AuditLogUsecase) List(ctx context.Context, in AuditLogListInput) (AuditLogListOutput, error) {
	f := repo.AuditLogFilter{
		ActorUserID: in.ActorUserID,
		ResourceID:  in.ResourceID,
	}
	f.Page, f.Limit = normalizePage(in.Page, in.Limit, auditLogPageLimit)

	if a := model.AuditAction(strings.ToUpper(strings.TrimSpace(in.Action))); a != "" {
		if _, ok := knownAuditActions[a]; !ok {
			return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid action")
		}
		f.Action = a
	}
	if rt := model.AuditResourceType(strings.ToLower(strings.TrimSpace(in.ResourceType))); rt != "" {
		if _, ok := knownAuditResources[rt]; !ok {
			return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid resource_type")
		}
		f.ResourceType = rt
	}

	var err error
	if f.From, err = parseDateIn(in.StartDate, u.loc, false); err != nil {
		return AuditLogListOutput{}, err
	}
	if f.To, err = parseDateIn(in.EndDate, u.loc, true); err != nil {
		return AuditLogListOutput{}, err
	}

	logs, total, err := u.logs.List(ctx, f)
	if err != nil {
		return AuditLogListOutput{}, internalError(err)
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return AuditLogListOutput{Items: logs, Pagination: newPagination(f.Page, f.Limit, total)}, nil
}
