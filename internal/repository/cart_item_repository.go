package repository

import (
	"context"

	"shoporder/internal/domain/model"
)

type CartItemRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	CountByUserID(ctx context.Context, userID int64) (int64, error)
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	// (user, product, specs_key)の行に数量を足す。無ければ作る
	// 合計がmaxQtyを超えるならfalse（行は変わらない）
	AddToLine(ctx context.Context, item model.CartItem, maxQty int64) (bool, error)
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	DeleteByUserID(ctx context.Context, userID int64) error
	// 注文後に使い終わった行を消す（他人の行は消さない）
	DeleteByIDs(ctx context.Context, userID int64, ids []int64) (int64, error)
}
