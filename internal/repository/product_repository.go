package repository

import (
	"context"

	"shoporder/internal/domain/model"
)

// 一覧検索
type ProductListQuery struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	Featured   *bool
	//管理画面では販売停止中も含める
	IncludeUnavailable bool
	Sort               string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	ListFeatured(ctx context.Context, limit int) ([]model.Product, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	Count(ctx context.Context) (int64, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	//is_available=false にするだけ
	SoftDelete(ctx context.Context, id int64) error
}
