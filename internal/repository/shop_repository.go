package repository

import (
	"context"

	"shoporder/internal/domain/model"
)

type ShopRepository interface {
	// 行が無いときはErrNotFound
	Get(ctx context.Context) (model.ShopInfo, error)
	// id=1にupsert
	Save(ctx context.Context, info model.ShopInfo) error
}
