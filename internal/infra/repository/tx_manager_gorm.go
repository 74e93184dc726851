package repository

import (
	"context"

	repo "shoporder/internal/repository"

	"gorm.io/gorm"
)

// 同じtxハンドルから毎回repoを作る
type gormTxRepos struct {
	tx *gorm.DB
}

func (r gormTxRepos) Orders() repo.OrderRepository         { return NewOrderGormRepository(r.tx) }
func (r gormTxRepos) OrderItems() repo.OrderItemRepository { return NewOrderItemGormRepository(r.tx) }
func (r gormTxRepos) Inventory() repo.InventoryRepository  { return NewInventoryGormRepository(r.tx) }
func (r gormTxRepos) Products() repo.ProductRepository     { return NewProductGormRepository(r.tx) }
func (r gormTxRepos) AuditLogs() repo.AuditLogRepository   { return NewAuditLogGormRepository(r.tx) }
func (r gormTxRepos) Users() repo.UserRepository           { return NewUserGormRepository(r.tx) }
func (r gormTxRepos) Shop() repo.ShopRepository            { return NewShopGormRepository(r.tx) }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

// fnがerrorを返すとrollback。commit失敗もrepoのエラーに揃える
func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return translate(tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormTxRepos{tx: tx})
	}))
}
