package repository

import (
	"context"
	"strings"
	"time"

	"shoporder/internal/domain/model"
	repo "shoporder/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	if err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error; err != nil {
		return model.Order{}, translate(err)
	}
	return o, nil
}

func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, status string, page int, limit int) ([]model.Order, int64, error) {
	page, limit = normalizePage(page, limit, 10, 100)

	q := r.db.WithContext(ctx).Model(&model.Order{}).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (page - 1) * limit
	if err := q.Order("id desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	//明細は OrderItems().CreateBulk で入れる
	order.Items = nil
	if err := r.db.WithContext(ctx).Create(&order).Error; err != nil {
		return 0, translate(err)
	}
	return order.ID, nil
}

func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	return r.updateColumns(ctx, orderID, map[string]interface{}{"status": status})
}

func (r *OrderGormRepository) UpdatePaymentStatus(ctx context.Context, orderID int64, status model.PaymentStatus) error {
	return r.updateColumns(ctx, orderID, map[string]interface{}{"payment_status": status})
}

func (r *OrderGormRepository) MarkCancelled(ctx context.Context, orderID int64, reason string, at time.Time) (bool, error) {
	//終了状態の注文は更新しない（同時キャンセルで在庫を二重に戻さない）
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status NOT IN ?", orderID, []model.OrderStatus{model.OrderStatusDelivered, model.OrderStatusCancelled}).
		Updates(map[string]interface{}{
			"status":       model.OrderStatusCancelled,
			"notes":        reason,
			"cancelled_at": at,
		})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *OrderGormRepository) updateColumns(ctx context.Context, orderID int64, values map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(values)

	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderGormRepository) Delete(ctx context.Context, orderID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Order{}, orderID)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderGormRepository) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&o).Error

	if err != nil {
		if translate(err) == repo.ErrNotFound {
			return model.Order{}, false, nil
		}
		return model.Order{}, false, err
	}
	return o, true, nil
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	f.Page, f.Limit = normalizePage(f.Page, f.Limit, 50, 100)

	q := r.db.WithContext(ctx).Model(&model.Order{})

	if f.Status != "" {
		q = q.Where("orders.status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		q = q.Where("orders.payment_status = ?", f.PaymentStatus)
	}
	if f.OrderType != "" {
		q = q.Where("orders.order_type = ?", f.OrderType)
	}
	if f.UserID != nil {
		q = q.Where("orders.user_id = ?", *f.UserID)
	}

	//注文番号・電話番号・ニックネーム
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		like := "%" + kw + "%"
		q = q.Joins("LEFT JOIN users ON users.id = orders.user_id").
			Where("orders.order_number LIKE ? OR orders.contact_phone LIKE ? OR users.phone LIKE ? OR users.nickname LIKE ?",
				like, like, like, like)
	}

	//期間絞り込み
	if f.From != nil {
		q = q.Where("orders.created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("orders.created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	if err := q.Select("orders.*").Order("orders.id desc").Limit(f.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) Statistics(ctx context.Context, f repo.OrderStatisticsFilter) (repo.OrderStatistics, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if f.From != nil {
			db = db.Where("created_at >= ?", *f.From)
		}
		if f.To != nil {
			db = db.Where("created_at <= ?", *f.To)
		}
		return db
	}

	out := repo.OrderStatistics{TotalRevenue: decimal.Zero, StatusBreakdown: []repo.StatusCount{}}

	if err := r.db.WithContext(ctx).Model(&model.Order{}).Scopes(scope).
		Count(&out.TotalOrders).Error; err != nil {
		return repo.OrderStatistics{}, err
	}

	//キャンセルは売上に入れない
	var revenue decimal.NullDecimal
	if err := r.db.WithContext(ctx).Model(&model.Order{}).Scopes(scope).
		Where("status <> ?", model.OrderStatusCancelled).
		Select("SUM(total_amount)").
		Row().Scan(&revenue); err != nil {
		return repo.OrderStatistics{}, err
	}
	if revenue.Valid {
		out.TotalRevenue = revenue.Decimal
	}

	if err := r.db.WithContext(ctx).Model(&model.Order{}).Scopes(scope).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&out.StatusBreakdown).Error; err != nil {
		return repo.OrderStatistics{}, err
	}

	return out, nil
}
