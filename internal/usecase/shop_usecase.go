package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"shoporder/internal/domain/model"
	repo "shoporder/internal/repository"

	"github.com/shopspring/decimal"
)

type ShopUsecase struct {
	shop  repo.ShopRepository
	tx    repo.TransactionManager
	clock Clock
	loc   *time.Location
}

func NewShopUsecase(shop repo.ShopRepository, tx repo.TransactionManager, loc *time.Location) *ShopUsecase {
	if loc == nil {
		loc = time.Local
	}
	return &ShopUsecase{shop: shop, tx: tx, clock: SystemClock{}, loc: loc}
}

type ShopInfoInput struct {
	Name           string
	Phone          string
	Address        string
	OpeningHours   string
	IsOpen         bool
	Announcement   string
	MinOrderAmount decimal.Decimal
	DeliveryFee    decimal.Decimal
}

type CheckOpenOutput struct {
	IsOpen       bool   `json:"is_open"`
	OpeningHours string `json:"opening_hours"`
}

type AnnouncementOutput struct {
	Announcement string `json:"announcement"`
}

func (u *ShopUsecase) GetInfo(ctx context.Context) (model.ShopInfo, error) {
	return loadShopInfo(ctx, u.shop)
}

// is_openと営業時間の両方で判定
func (u *ShopUsecase) CheckOpen(ctx context.Context) (CheckOpenOutput, error) {
	info, err := loadShopInfo(ctx, u.shop)
	if err != nil {
		return CheckOpenOutput{}, err
	}
	return CheckOpenOutput{
		IsOpen:       info.IsOpenAt(u.clock.Now().In(u.loc)),
		OpeningHours: info.OpeningHours,
	}, nil
}

func (u *ShopUsecase) Update(ctx context.Context, adminID int64, in ShopInfoInput) (model.ShopInfo, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.ShopInfo{}, NewHTTPError(http.StatusBadRequest, "name required")
	}
	hours := strings.TrimSpace(in.OpeningHours)
	if hours == "" {
		hours = model.DefaultOpeningHours
	}
	if _, _, err := model.ParseOpeningHours(hours); err != nil {
		return model.ShopInfo{}, NewHTTPError(http.StatusBadRequest, "invalid opening_hours")
	}
	if in.MinOrderAmount.IsNegative() || in.DeliveryFee.IsNegative() {
		return model.ShopInfo{}, NewHTTPError(http.StatusBadRequest, "amounts must be >= 0")
	}

	before, err := loadShopInfo(ctx, u.shop)
	if err != nil {
		return model.ShopInfo{}, err
	}
	after := model.ShopInfo{
		ID:             model.ShopInfoID,
		Name:           strings.TrimSpace(in.Name),
		Phone:          in.Phone,
		Address:        in.Address,
		OpeningHours:   hours,
		IsOpen:         in.IsOpen,
		Announcement:   in.Announcement,
		MinOrderAmount: in.MinOrderAmount,
		DeliveryFee:    in.DeliveryFee,
	}
	return u.save(ctx, adminID, before, after)
}

func (u *ShopUsecase) GetAnnouncement(ctx context.Context) (AnnouncementOutput, error) {
	info, err := loadShopInfo(ctx, u.shop)
	if err != nil {
		return AnnouncementOutput{}, err
	}
	return AnnouncementOutput{Announcement: info.Announcement}, nil
}

func (u *ShopUsecase) UpdateAnnouncement(ctx context.Context, adminID int64, text string) (AnnouncementOutput, error) {
	before, err := loadShopInfo(ctx, u.shop)
	if err != nil {
		return AnnouncementOutput{}, err
	}
	after := before
	after.Announcement = strings.TrimSpace(text)
	saved, err := u.save(ctx, adminID, before, after)
	if err != nil {
		return AnnouncementOutput{}, err
	}
	return AnnouncementOutput{Announcement: saved.Announcement}, nil
}

// is_openを反転
func (u *ShopUsecase) ToggleOpen(ctx context.Context, adminID int64) (model.ShopInfo, error) {
	before, err := loadShopInfo(ctx, u.shop)
	if err != nil {
		return model.ShopInfo{}, err
	}
	after := before
	after.IsOpen = !before.IsOpen
	return u.save(ctx, adminID, before, after)
}

func (u *ShopUsecase) save(ctx context.Context, adminID int64, before, after model.ShopInfo) (model.ShopInfo, error) {
	if adminID <= 0 {
		return model.ShopInfo{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	after.ID = model.ShopInfoID
	after.UpdatedAt = u.clock.Now()

	//保存と監査ログ（UPDATE_SHOP）は同じtx
	b, _ := json.Marshal(before)
	a, _ := json.Marshal(after)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Shop().Save(ctx, after); err != nil {
			return internalError(err)
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminID,
			Action:       model.AuditActionUpdateShop,
			ResourceType: model.AuditResourceShop,
			ResourceID:   model.ShopInfoID,
			BeforeJSON:   string(b),
			AfterJSON:    string(a),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return internalError(err)
		}
		return nil
	})
	if err != nil {
		return model.ShopInfo{}, err
	}
	return after, nil
}
