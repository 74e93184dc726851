package repository

import (
	"context"
	"testing"

	"shoporder/internal/domain/model"
	"shoporder/internal/infra/db/dbtest"
	repo "shoporder/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestCartItemRepository_AddToLineAndBulkDelete(t *testing.T) {
	db := dbtest.NewSQLite(t)
	r := NewCartItemGormRepository(db)
	ctx := context.Background()

	ok, err := r.AddToLine(ctx, model.CartItem{UserID: 1, ProductID: 10, Quantity: 1}, 5)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = r.AddToLine(ctx, model.CartItem{
		UserID: 1, ProductID: 10, Quantity: 2,
		Specs: datatypes.JSONMap{"size": "L"}, SpecsKey: `{"size":"L"}`,
	}, 5)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = r.AddToLine(ctx, model.CartItem{UserID: 2, ProductID: 10, Quantity: 1}, 5)
	require.NoError(t, err)
	require.True(t, ok)

	//同じspecsは同じ行に加算
	ok, err = r.AddToLine(ctx, model.CartItem{UserID: 1, ProductID: 10, Quantity: 3, SpecsKey: `{"size":"L"}`}, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	lines, err := r.ListByUserID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	plain, large := lines[0], lines[1]
	assert.EqualValues(t, 1, plain.Quantity)
	assert.EqualValues(t, 5, large.Quantity)
	assert.Equal(t, "L", large.Specs["size"])

	n, err := r.CountByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)

	others, err := r.ListByUserID(ctx, 2)
	require.NoError(t, err)
	require.Len(t, others, 1)

	//他人の行は消えない
	deleted, err := r.DeleteByIDs(ctx, 1, []int64{plain.ID, others[0].ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = r.FindByID(ctx, others[0].ID)
	require.NoError(t, err)
	_, err = r.FindByID(ctx, plain.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestCartItemRepository_AddToLineRespectsCeiling(t *testing.T) {
	db := dbtest.NewSQLite(t)
	r := NewCartItemGormRepository(db)
	ctx := context.Background()

	ok, err := r.AddToLine(ctx, model.CartItem{UserID: 1, ProductID: 10, Quantity: 4}, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.AddToLine(ctx, model.CartItem{UserID: 1, ProductID: 10, Quantity: 2}, 3)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = r.AddToLine(ctx, model.CartItem{UserID: 1, ProductID: 10, Quantity: 2}, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.AddToLine(ctx, model.CartItem{UserID: 1, ProductID: 10, Quantity: 1}, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	lines, err := r.ListByUserID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.EqualValues(t, 3, lines[0].Quantity)
}
