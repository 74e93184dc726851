package usecase

import (
	"context"
	"net/http"
	"strings"

	"shoporder/internal/domain/model"
	repo "shoporder/internal/repository"
)

type CategoryUsecase struct {
	categories repo.CategoryRepository
	images     ImageURLFormatter
}

func NewCategoryUsecase(categories repo.CategoryRepository, images ImageURLFormatter) *CategoryUsecase {
	return &CategoryUsecase{categories: categories, images: images}
}

type CategoryInput struct {
	Name        string
	Description string
	Image       string
	ParentID    *int64
	SortOrder   int
	IsActive    bool
}

func (u *CategoryUsecase) List(ctx context.Context, includeInactive bool) ([]model.Category, error) {
	list, err := u.categories.List(ctx, includeInactive)
	if err != nil {
		return nil, internalError(err)
	}
	for i := range list {
		if list[i].Image != "" {
			list[i].Image = u.images.URL(list[i].Image)
		}
	}
	return list, nil
}

func (u *CategoryUsecase) Create(ctx context.Context, in CategoryInput) (model.Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name required")
	}
	c, err := u.categories.Create(ctx, model.Category{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Image:       in.Image,
		ParentID:    in.ParentID,
		SortOrder:   in.SortOrder,
		IsActive:    in.IsActive,
	})
	if err != nil {
		return model.Category{}, repoError(err, "category not found")
	}
	return c, nil
}

func (u *CategoryUsecase) Update(ctx context.Context, id int64, in CategoryInput) (model.Category, error) {
	if id <= 0 {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid category id")
	}
	if strings.TrimSpace(in.Name) == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name required")
	}
	if in.ParentID != nil && *in.ParentID == id {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "category cannot be its own parent")
	}
	if err := u.categories.Update(ctx, model.Category{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Image:       in.Image,
		ParentID:    in.ParentID,
		SortOrder:   in.SortOrder,
		IsActive:    in.IsActive,
	}); err != nil {
		return model.Category{}, repoError(err, "category not found")
	}
	c, err := u.categories.FindByID(ctx, id)
	if err != nil {
		return model.Category{}, repoError(err, "category not found")
	}
	return c, nil
}

// 商品が残っているカテゴリは消せない
func (u *CategoryUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid category id")
	}
	n, err := u.categories.CountProducts(ctx, id)
	if err != nil {
		return internalError(err)
	}
	if n > 0 {
		return NewHTTPError(http.StatusBadRequest, "category has products")
	}
	if err := u.categories.Delete(ctx, id); err != nil {
		return repoError(err, "category not found")
	}
	return nil
}
