package repository

import (
	"context"
	"errors"
	"testing"

	"shoporder/internal/domain/model"
	"shoporder/internal/infra/db/dbtest"
	repo "shoporder/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sqlmock "gopkg.in/DATA-DOG/go-sqlmock.v1"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const decreaseStockSQL = `UPDATE "products" SET .+stock_quantity - .+ WHERE .*stock_quantity >= `

// postgres方言でSQLの期待値を検証する
func pgMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqldb.Close() })

	gormdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqldb}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return gormdb, mock
}

func seedProduct(t *testing.T, db *gorm.DB, stock int64) model.Product {
	t.Helper()
	p := model.Product{
		Name:          "latte",
		Price:         decimal.NewFromInt(10),
		StockQuantity: stock,
		IsAvailable:   true,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestInventory_DecreaseStockIfEnough_ZeroRowsIsFalse(t *testing.T) {
	gdb, mock := pgMock(t)
	r := NewInventoryGormRepository(gdb)

	mock.ExpectExec(decreaseStockSQL).WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := r.DecreaseStockIfEnough(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestInventory_DecreaseStockIfEnough_OneRowIsTrue(t *testing.T) {
	gdb, mock := pgMock(t)
	r := NewInventoryGormRepository(gdb)

	mock.ExpectExec(decreaseStockSQL).WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := r.DecreaseStockIfEnough(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestTxManager_RollsBackWhenDecrementLosesRace(t *testing.T) {
	gdb, mock := pgMock(t)
	tm := NewTxManagerGorm(gdb)
	errOut := errors.New("insufficient stock")

	mock.ExpectBegin()
	mock.ExpectExec(decreaseStockSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := tm.WithinTx(context.Background(), func(r repo.TxRepos) error {
		ok, err := r.Inventory().DecreaseStockIfEnough(context.Background(), 1, 5)
		if err != nil {
			return err
		}
		if !ok {
			return errOut
		}
		return nil
	})

	assert.ErrorIs(t, err, errOut)
	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestInventory_SQLite_GuardedDecrement(t *testing.T) {
	db := dbtest.NewSQLite(t)
	r := NewInventoryGormRepository(db)
	ctx := context.Background()
	p := seedProduct(t, db, 5)

	ok, err := r.DecreaseStockIfEnough(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	//残り2なので3は減らせない
	ok, err = r.DecreaseStockIfEnough(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	var got model.Product
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, int64(2), got.StockQuantity)
	assert.Equal(t, int64(3), got.SalesCount)

	require.NoError(t, r.IncreaseStock(ctx, p.ID, 3))
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, int64(5), got.StockQuantity)
	assert.Equal(t, int64(0), got.SalesCount)

	assert.ErrorIs(t, r.IncreaseStock(ctx, 9999, 1), repo.ErrNotFound)
}
