package repository

import (
	"context"
	"testing"

	"shoporder/internal/domain/model"
	"shoporder/internal/infra/db/dbtest"
	repo "shoporder/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShopRepository_Upsert(t *testing.T) {
	db := dbtest.NewSQLite(t)
	r := NewShopGormRepository(db)
	ctx := context.Background()

	_, err := r.Get(ctx)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	info := model.DefaultShopInfo()
	info.MinOrderAmount = decimal.NewFromInt(15)
	require.NoError(t, r.Save(ctx, info))

	info.IsOpen = false
	info.DeliveryFee = decimal.NewFromInt(5)
	require.NoError(t, r.Save(ctx, info))

	got, err := r.Get(ctx)
	require.NoError(t, err)
	assert.False(t, got.IsOpen)
	assert.True(t, decimal.NewFromInt(15).Equal(got.MinOrderAmount))
	assert.True(t, decimal.NewFromInt(5).Equal(got.DeliveryFee))

	var n int64
	require.NoError(t, db.Model(&model.ShopInfo{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}
