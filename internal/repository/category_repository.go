package repository

import (
	"context"

	"shoporder/internal/domain/model"
)

type CategoryRepository interface {
	List(ctx context.Context, includeInactive bool) ([]model.Category, error)
	FindByID(ctx context.Context, id int64) (model.Category, error)
	Create(ctx context.Context, c model.Category) (model.Category, error)
	Update(ctx context.Context, c model.Category) error
	Delete(ctx context.Context, id int64) error
	CountProducts(ctx context.Context, id int64) (int64, error)
}
