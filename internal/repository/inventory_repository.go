package repository

import (
	"context"

	"shoporder/internal/domain/model"
)

type InventoryRepository interface {
	// 在庫の現在値を設定（読み取り→書き込み、排他なし）
	SetStock(ctx context.Context, productID int64, newStock int64) error

	// 在庫が足りるときだけ減算し、販売数を加算
	// 更新行が0ならfalse
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 在庫戻し（キャンセルなど）
	IncreaseStock(ctx context.Context, productID int64, qty int64) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
