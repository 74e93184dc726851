package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"shoporder/internal/domain/model"
	repo "shoporder/internal/repository"
	"shoporder/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuditLogList_NormalizesFilter(t *testing.T) {
	logs := &AuditRepoMock{}
	uc := usecase.NewAuditLogUsecase(logs, time.UTC)
	ctx := context.Background()

	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	logs.On("List", ctx, mock.MatchedBy(func(f repo.AuditLogFilter) bool {
		return f.Action == model.AuditActionUpdateStock &&
			f.ResourceType == model.AuditResourceProduct &&
			f.From != nil && f.From.Equal(from) && f.To == nil &&
			f.Page == 2 && f.Limit == 50
	})).Return([]model.AuditLog{{ID: 9}}, int64(51), nil).Once()

	out, err := uc.List(ctx, usecase.AuditLogListInput{
		Action:       "update_stock",
		ResourceType: "Product",
		StartDate:    "2026-10-01",
		Page:         2,
		Limit:        500,
	})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.EqualValues(t, 51, out.Pagination.Total)
	assert.EqualValues(t, 2, out.Pagination.Pages)
	logs.AssertExpectations(t)
}

func TestAuditLogList_RejectsUnknownValues(t *testing.T) {
	logs := &AuditRepoMock{}
	uc := usecase.NewAuditLogUsecase(logs, time.UTC)
	ctx := context.Background()

	_, err := uc.List(ctx, usecase.AuditLogListInput{Action: "DROP_TABLE"})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = uc.List(ctx, usecase.AuditLogListInput{ResourceType: "cart"})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = uc.List(ctx, usecase.AuditLogListInput{EndDate: "yesterday"})
	requireStatus(t, err, http.StatusBadRequest)

	logs.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}
