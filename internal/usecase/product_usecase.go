package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"shoporder/internal/domain/model"
	repo "shoporder/internal/repository"

	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	tx          repo.TransactionManager
	productRepo repo.ProductRepository
	images      ImageURLFormatter
	clock       Clock
}

func NewProductUsecase(tx repo.TransactionManager, productRepo repo.ProductRepository, images ImageURLFormatter) *ProductUsecase {
	return &ProductUsecase{
		tx:          tx,
		productRepo: productRepo,
		images:      images,
		clock:       SystemClock{},
	}
}

type ListProductsInput struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	Featured   *bool
	Sort       string
}

type ProductListOutput struct {
	Items      []model.Product `json:"items"`
	Pagination Pagination      `json:"pagination"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 0 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 0 || in.Limit > maxPageLimit {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	switch in.Sort {
	case "", "price_asc", "price_desc", "sales":
	default:
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}
	page, limit := normalizePage(in.Page, in.Limit, 20)

	items, total, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Page:       page,
		Limit:      limit,
		Q:          strings.TrimSpace(in.Q),
		CategoryID: in.CategoryID,
		Featured:   in.Featured,
		Sort:       in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, internalError(err)
	}

	return ProductListOutput{
		Items:      u.images.Products(items),
		Pagination: newPagination(page, limit, total),
	}, nil
}

// 販売数の多い順
func (u *ProductUsecase) ListFeatured(ctx context.Context, limit int) ([]model.Product, error) {
	items, err := u.productRepo.ListFeatured(ctx, limit)
	if err != nil {
		return nil, internalError(err)
	}
	return u.images.Products(items), nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err != nil {
		return model.Product{}, repoError(err, "product not found")
	}
	if !p.IsAvailable {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	return u.images.Product(p), nil
}

type AdminProductInput struct {
	CategoryID    *int64
	Name          string
	Description   string
	Price         decimal.Decimal
	OriginalPrice decimal.Decimal
	// 作成時のみ使う（更新は在庫APIから）
	StockQuantity int64
	IsAvailable   bool
	IsFeatured    bool
	SortOrder     int
	Images        []string
}

func (in AdminProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if in.Price.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if in.OriginalPrice.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "original_price must be >= 0")
	}
	if in.StockQuantity < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock_quantity must be >= 0")
	}
	return nil
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := in.validate(); err != nil {
		return model.Product{}, err
	}

	p, err := u.productRepo.Create(ctx, model.Product{
		CategoryID:    in.CategoryID,
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		StockQuantity: in.StockQuantity,
		IsAvailable:   in.IsAvailable,
		IsFeatured:    in.IsFeatured,
		SortOrder:     in.SortOrder,
		Images:        in.Images,
	})
	if err != nil {
		return model.Product{}, repoError(err, "product not found")
	}
	return u.images.Product(p), nil
}

func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in AdminProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := in.validate(); err != nil {
		return model.Product{}, err
	}

	err := u.productRepo.Update(ctx, model.Product{
		ID:            productID,
		CategoryID:    in.CategoryID,
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		Price:         in.Price,
		OriginalPrice: in.OriginalPrice,
		IsAvailable:   in.IsAvailable,
		IsFeatured:    in.IsFeatured,
		SortOrder:     in.SortOrder,
		Images:        in.Images,
		UpdatedAt:     u.clock.Now(),
	})
	if err != nil {
		return model.Product{}, repoError(err, "product not found")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err != nil {
		return model.Product{}, repoError(err, "product not found")
	}
	return u.images.Product(p), nil
}

// 論理削除（is_available=false）
func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	if err := u.productRepo.SoftDelete(ctx, productID); err != nil {
		return repoError(err, "product not found")
	}
	return nil
}

const (
	StockOperationIncrease = "increase"
	StockOperationDecrease = "decrease"
)

type AdjustStockInput struct {
	Quantity  int64
	Operation string
	Reason    string
}

// 在庫の直接調整（読み取り→書き込み、排他なし）
// 調整履歴と監査ログを同じtxで残す
func (u *ProductUsecase) AdjustStock(ctx context.Context, adminUserID int64, productID int64, in AdjustStockInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if in.Quantity < 1 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "quantity must be >= 1")
	}
	var delta int64
	switch in.Operation {
	case StockOperationIncrease:
		delta = in.Quantity
	case StockOperationDecrease:
		delta = -in.Quantity
	default:
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid operation")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "manual " + in.Operation
	}

	var out model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//変更前の在庫（before）
		p, err := r.Products().FindByID(ctx, productID)
		if err != nil {
			return repoError(err, "product not found")
		}

		newStock := p.StockQuantity + delta
		if newStock < 0 {
			return NewHTTPError(http.StatusBadRequest, "insufficient stock")
		}

		if err := r.Inventory().SetStock(ctx, productID, newStock); err != nil {
			return repoError(err, "product not found")
		}

		now := u.clock.Now()
		//履歴を作成（差分）
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   productID,
			AdminUserID: adminUserID,
			Delta:       delta,
			Before:      p.StockQuantity,
			After:       newStock,
			Reason:      reason,
			CreatedAt:   now,
		}); err != nil {
			return internalError(err)
		}

		//監査ログを作成（在庫更新）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   fmt.Sprintf(`{"stock_quantity":%d}`, p.StockQuantity),
			AfterJSON:    fmt.Sprintf(`{"stock_quantity":%d}`, newStock),
			CreatedAt:    now,
		}); err != nil {
			return internalError(err)
		}

		p.StockQuantity = newStock
		p.UpdatedAt = now
		out = p
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}
	return u.images.Product(out), nil
}
