package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// 許可されたステータスか
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// キャンセル・削除の判定に使う終端状態
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	}
	return false
}

type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypePickup   OrderType = "pickup"
	OrderTypeDineIn   OrderType = "dine_in"
)

func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeDelivery, OrderTypePickup, OrderTypeDineIn:
		return true
	}
	return false
}

type Order struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64           `gorm:"not null;index;uniqueIndex:idx_orders_user_idem" json:"user_id"`
	OrderNumber   string          `gorm:"type:varchar(32);not null;uniqueIndex" json:"order_number"`
	Status        OrderStatus     `gorm:"type:varchar(20);not null;index;default:'pending'" json:"status"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(20);not null;default:'unpaid'" json:"payment_status"`
	OrderType     OrderType       `gorm:"type:varchar(20);not null" json:"order_type"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	DeliveryFee   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"delivery_fee"`
	//pickupのときだけ入る
	PickupCode      *string `gorm:"type:varchar(10)" json:"pickup_code"`
	TableNumber     string  `gorm:"type:varchar(20)" json:"table_number"`
	DeliveryAddress string  `gorm:"type:text" json:"delivery_address"`
	ContactName     string  `gorm:"type:varchar(100)" json:"contact_name"`
	ContactPhone    string  `gorm:"type:varchar(30)" json:"contact_phone"`
	Notes           string  `gorm:"type:text" json:"notes"`
	//二重送信防止（ユーザー単位で一意、未指定はNULL）
	IdempotencyKey *string     `gorm:"type:varchar(255);uniqueIndex:idx_orders_user_idem" json:"-"`
	CancelledAt    *time.Time  `json:"cancelled_at"`
	CreatedAt      time.Time   `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
	Items          []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}
