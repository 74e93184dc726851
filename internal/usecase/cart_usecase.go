package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"shoporder/internal/domain/model"
	repo "shoporder/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// cart_items.specs_keyの列幅
const maxSpecsKeyLen = 512

// CartUsecase は /cart の業務ロジックです。
// 同じ商品でもspecsが違えば別の行として扱います。
type CartUsecase struct {
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
	images       ImageURLFormatter
}

func NewCartUsecase(
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	images ImageURLFormatter,
) *CartUsecase {
	return &CartUsecase{
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
		images:       images,
	}
}

// 商品の現在の状態を添えて返す
type CartItemResponse struct {
	ID            int64           `json:"id"`
	ProductID     int64           `json:"product_id"`
	Name          string          `json:"name"`
	Image         string          `json:"image"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int64           `json:"quantity"`
	Specs         map[string]any  `json:"specs,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	StockQuantity int64           `json:"stock_quantity"`
	IsAvailable   bool            `json:"is_available"`
}

type CartResponse struct {
	Items       []CartItemResponse `json:"items"`
	TotalItems  int64              `json:"total_items"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
	Specs     map[string]any
}

func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	lines, err := u.cartItemRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, internalError(err)
	}

	res := CartResponse{Items: make([]CartItemResponse, 0, len(lines)), TotalAmount: decimal.Zero}
	for _, ci := range lines {
		p, err := u.productRepo.FindByID(ctx, ci.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			//商品が消えた行は表示しない
			continue
		}
		if err != nil {
			return CartResponse{}, internalError(err)
		}

		images := u.images.URLs(p.Images)
		sub := p.Price.Mul(decimal.NewFromInt(ci.Quantity))
		res.Items = append(res.Items, CartItemResponse{
			ID:            ci.ID,
			ProductID:     p.ID,
			Name:          p.Name,
			Image:         images[0],
			Price:         p.Price,
			Quantity:      ci.Quantity,
			Specs:         map[string]any(ci.Specs),
			Subtotal:      sub,
			StockQuantity: p.StockQuantity,
			IsAvailable:   p.IsAvailable,
		})
		res.TotalItems += ci.Quantity
		res.TotalAmount = res.TotalAmount.Add(sub)
	}
	return res, nil
}

func (u *CartUsecase) Count(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	n, err := u.cartItemRepo.CountByUserID(ctx, userID)
	if err != nil {
		return 0, internalError(err)
	}
	return n, nil
}

// 同じspecsの行があれば数量を足す
func (u *CartUsecase) AddItem(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 || in.Quantity <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid input")
	}

	p, err := u.productRepo.FindByID(ctx, in.ProductID)
	if err != nil {
		return CartResponse{}, repoError(err, "product not found")
	}
	if !p.IsAvailable {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "product is not available")
	}

	key, err := SpecsKey(in.Specs)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid specs")
	}

	var specs datatypes.JSONMap
	if len(in.Specs) > 0 {
		specs = datatypes.JSONMap(in.Specs)
	}
	//既存 + 追加 が在庫を超えない（同時の追加もrepo側の条件付き更新で弾く）
	ok, err := u.cartItemRepo.AddToLine(ctx, model.CartItem{
		UserID:    userID,
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Specs:     specs,
		SpecsKey:  key,
	}, p.StockQuantity)
	if err != nil {
		return CartResponse{}, internalError(err)
	}
	if !ok {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "insufficient stock")
	}

	return u.GetCart(ctx, userID)
}

// 0以下なら行を削除
func (u *CartUsecase) UpdateItemQuantity(ctx context.Context, userID int64, itemID int64, qty int64) (CartResponse, error) {
	line, err := u.ownedLine(ctx, userID, itemID)
	if err != nil {
		return CartResponse{}, err
	}

	if qty <= 0 {
		if err := u.cartItemRepo.DeleteByID(ctx, line.ID); err != nil {
			return CartResponse{}, repoError(err, "cart item not found")
		}
		return u.GetCart(ctx, userID)
	}

	p, err := u.productRepo.FindByID(ctx, line.ProductID)
	if err != nil {
		return CartResponse{}, repoError(err, "product not found")
	}
	if qty > p.StockQuantity {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "insufficient stock")
	}
	if err := u.cartItemRepo.UpdateQuantity(ctx, line.ID, qty); err != nil {
		return CartResponse{}, repoError(err, "cart item not found")
	}
	return u.GetCart(ctx, userID)
}

func (u *CartUsecase) RemoveItem(ctx context.Context, userID int64, itemID int64) (CartResponse, error) {
	line, err := u.ownedLine(ctx, userID, itemID)
	if err != nil {
		return CartResponse{}, err
	}
	if err := u.cartItemRepo.DeleteByID(ctx, line.ID); err != nil {
		return CartResponse{}, repoError(err, "cart item not found")
	}
	return u.GetCart(ctx, userID)
}

// 指定した行だけ削除（他人の行は対象外）
func (u *CartUsecase) RemoveItems(ctx context.Context, userID int64, ids []int64) (int64, error) {
	if userID <= 0 {
		return 0, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := u.cartItemRepo.DeleteByIDs(ctx, userID, ids)
	if err != nil {
		return 0, internalError(err)
	}
	return n, nil
}

func (u *CartUsecase) Clear(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.cartItemRepo.DeleteByUserID(ctx, userID); err != nil {
		return internalError(err)
	}
	return nil
}

// 他人の行は存在しない扱い
func (u *CartUsecase) ownedLine(ctx context.Context, userID int64, itemID int64) (model.CartItem, error) {
	if userID <= 0 {
		return model.CartItem{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if itemID <= 0 {
		return model.CartItem{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	line, err := u.cartItemRepo.FindByID(ctx, itemID)
	if err != nil {
		return model.CartItem{}, repoError(err, "cart item not found")
	}
	if line.UserID != userID {
		return model.CartItem{}, NewHTTPError(http.StatusNotFound, "cart item not found")
	}
	return line, nil
}

// specsの正規化（キー順に並ぶJSON、空なら""）
func SpecsKey(specs map[string]any) (string, error) {
	if len(specs) == 0 {
		return "", nil
	}
	b, err := json.Marshal(specs)
	if err != nil {
		return "", err
	}
	if len(b) > maxSpecsKeyLen {
		return "", fmt.Errorf("specs too long: %d bytes", len(b))
	}
	return string(b), nil
}
