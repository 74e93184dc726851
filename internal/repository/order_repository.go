package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"shoporder/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page          int
	Limit         int
	Status        string
	PaymentStatus string
	OrderType     string
	//注文番号・電話番号・ニックネームの部分一致
	Keyword string
	UserID  *int64
	From    *time.Time
	To      *time.Time
}

type OrderStatisticsFilter struct {
	From *time.Time
	To   *time.Time
}

type StatusCount struct {
	Status model.OrderStatus `json:"status"`
	Count  int64             `json:"count"`
}

type OrderStatistics struct {
	TotalOrders     int64           `json:"total_orders"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	StatusBreakdown []StatusCount   `json:"status_breakdown"`
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, status string, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, orderID int64, status model.PaymentStatus) error
	// status=cancelled、notesに理由、cancelled_atを入れる
	// delivered/cancelledの注文は更新せずfalse
	MarkCancelled(ctx context.Context, orderID int64, reason string, at time.Time) (bool, error)
	Delete(ctx context.Context, orderID int64) error

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)
	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
	//キャンセル以外を売上として集計
	Statistics(ctx context.Context, f OrderStatisticsFilter) (OrderStatistics, error)
}
