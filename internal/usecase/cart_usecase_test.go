package usecase_test

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"shoporder/internal/domain/model"
	"shoporder/internal/infra/db/dbtest"
	infrarepo "shoporder/internal/infra/repository"
	"shoporder/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCartUsecase(t *testing.T) (*usecase.CartUsecase, *gorm.DB) {
	t.Helper()
	db := dbtest.NewSQLite(t)
	uc := usecase.NewCartUsecase(
		infrarepo.NewCartItemGormRepository(db),
		infrarepo.NewProductGormRepository(db),
		usecase.NewImageURLFormatter("http://localhost:8080"),
	)
	return uc, db
}

func seedCartProduct(t *testing.T, db *gorm.DB, stock int64) model.Product {
	t.Helper()
	p := model.Product{Name: "latte", Price: decimal.RequireFromString("4.50"), StockQuantity: stock, IsAvailable: true}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestCart_SpecsAreLineIdentity(t *testing.T) {
	uc, db := newCartUsecase(t)
	p := seedCartProduct(t, db, 10)
	ctx := context.Background()

	_, err := uc.AddItem(ctx, 1, usecase.AddCartInput{ProductID: p.ID, Quantity: 1, Specs: map[string]any{"size": "L", "ice": "less"}})
	require.NoError(t, err)
	// キー順が違っても同じ行
	_, err = uc.AddItem(ctx, 1, usecase.AddCartInput{ProductID: p.ID, Quantity: 2, Specs: map[string]any{"ice": "less", "size": "L"}})
	require.NoError(t, err)
	cart, err := uc.AddItem(ctx, 1, usecase.AddCartInput{ProductID: p.ID, Quantity: 1, Specs: map[string]any{"size": "M"}})
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	assert.EqualValues(t, 3, cart.Items[0].Quantity)
	assert.EqualValues(t, 1, cart.Items[1].Quantity)
	assert.EqualValues(t, 4, cart.TotalItems)
	assert.True(t, cart.TotalAmount.Equal(decimal.RequireFromString("18")))
	assert.Equal(t, "http://localhost:8080"+usecase.DefaultProductImage, cart.Items[0].Image)

	n, err := uc.Count(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestCart_StockCeiling(t *testing.T) {
	uc, db := newCartUsecase(t)
	p := seedCartProduct(t, db, 3)
	ctx := context.Background()

	cart, err := uc.AddItem(ctx, 1, usecase.AddCartInput{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = uc.AddItem(ctx, 1, usecase.AddCartInput{ProductID: p.ID, Quantity: 2})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = uc.UpdateItemQuantity(ctx, 1, cart.Items[0].ID, 4)
	requireStatus(t, err, http.StatusBadRequest)

	cart, err = uc.UpdateItemQuantity(ctx, 1, cart.Items[0].ID, 3)
	require.NoError(t, err)
	assert.EqualValues(t, 3, cart.Items[0].Quantity)
}

// 同時に同じ行を追加しても行は1つ、数量は在庫を超えない
func TestCart_ConcurrentAddKeepsSingleLineWithinStock(t *testing.T) {
	uc, db := newCartUsecase(t)
	p := seedCartProduct(t, db, 3)
	ctx := context.Background()

	const workers = 8
	var (
		wg       sync.WaitGroup
		accepted atomic.Int64
		rejected atomic.Int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.AddItem(ctx, 1, usecase.AddCartInput{ProductID: p.ID, Quantity: 3})
			if err == nil {
				accepted.Add(1)
				return
			}
			if he, ok := usecase.AsHTTPError(err); ok && he.Status == http.StatusBadRequest {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, accepted.Load())
	assert.EqualValues(t, workers-1, rejected.Load())

	var lines []model.CartItem
	require.NoError(t, db.Where("user_id = ?", 1).Find(&lines).Error)
	require.Len(t, lines, 1)
	assert.EqualValues(t, 3, lines[0].Quantity)
}

func TestCart_UpdateToZeroRemovesLine(t *testing.T) {
	uc, db := newCartUsecase(t)
	p := seedCartProduct(t, db, 3)
	ctx := context.Background()

	cart, err := uc.AddItem(ctx, 1, usecase.AddCartInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	// 他人の行は見えない
	_, err = uc.UpdateItemQuantity(ctx, 2, cart.Items[0].ID, 0)
	requireStatus(t, err, http.StatusNotFound)

	cart, err = uc.UpdateItemQuantity(ctx, 1, cart.Items[0].ID, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.TotalAmount.IsZero())
}

func TestCart_UnavailableProductRejected(t *testing.T) {
	uc, db := newCartUsecase(t)
	p := seedCartProduct(t, db, 3)
	require.NoError(t, db.Model(&p).Update("is_available", false).Error)

	_, err := uc.AddItem(context.Background(), 1, usecase.AddCartInput{ProductID: p.ID, Quantity: 1})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = uc.AddItem(context.Background(), 1, usecase.AddCartInput{ProductID: 999, Quantity: 1})
	requireStatus(t, err, http.StatusNotFound)
}

func TestCart_ClearAndRemoveItems(t *testing.T) {
	uc, db := newCartUsecase(t)
	p := seedCartProduct(t, db, 10)
	ctx := context.Background()

	_, err := uc.AddItem(ctx, 1, usecase.AddCartInput{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)
	cart, err := uc.AddItem(ctx, 1, usecase.AddCartInput{ProductID: p.ID, Quantity: 1, Specs: map[string]any{"size": "L"}})
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)

	n, err := uc.RemoveItems(ctx, 1, []int64{cart.Items[0].ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, uc.Clear(ctx, 1))
	count, err := uc.Count(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSpecsKey(t *testing.T) {
	k, err := usecase.SpecsKey(nil)
	require.NoError(t, err)
	assert.Equal(t, "", k)

	k, err = usecase.SpecsKey(map[string]any{"b": 1, "a": "x"})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1}`, k)
}
