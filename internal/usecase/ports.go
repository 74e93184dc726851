package usecase

import (
	"context"
	"time"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// 注文番号の採番（ORD + YYMMDD + 6桁）
type OrderNumberGenerator interface {
	Next(ctx context.Context, now time.Time) (string, error)
}

// 受け取りコード（4桁）
type PickupCodeGenerator func() string

type OrderEventType string

const (
	OrderEventCreated        OrderEventType = "order.created"
	OrderEventCancelled      OrderEventType = "order.cancelled"
	OrderEventStatusChanged  OrderEventType = "order.status_changed"
	OrderEventPaymentChanged OrderEventType = "order.payment_changed"
	OrderEventDeleted        OrderEventType = "order.deleted"
)

type OrderEvent struct {
	Type OrderEventType `json:"type"`
	// 削除イベントではIDと番号だけ
	Order OrderOutput `json:"order"`
	At    time.Time   `json:"at"`
}

// コミット後の通知（管理画面のライブ表示など）
type OrderEventPublisher interface {
	Publish(ctx context.Context, ev OrderEvent)
}

type OrderMetrics interface {
	OrderCreated(orderType string)
	OrderRejected(reason string)
	OrderCancelled()
	StockRestored(qty int64)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, OrderEvent) {}

type nopMetrics struct{}

func (nopMetrics) OrderCreated(string)  {}
func (nopMetrics) OrderRejected(string) {}
func (nopMetrics) OrderCancelled()      {}
func (nopMetrics) StockRestored(int64)  {}

// 操作したユーザー
type Actor struct {
	UserID  int64
	IsAdmin bool
}

func (a Actor) canAccess(ownerID int64) bool {
	return a.IsAdmin || (a.UserID > 0 && a.UserID == ownerID)
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// page/limitは正規化済みで渡す
func newPagination(page, limit int, total int64) Pagination {
	pages := int64(0)
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

const maxPageLimit = 100

// 範囲外のlimitはデフォルトに戻す（repo側と同じ規則）
func normalizePage(page, limit, def int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > maxPageLimit {
		limit = def
	}
	return page, limit
}
