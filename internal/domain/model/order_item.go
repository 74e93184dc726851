package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// 注文明細
// 価格と商品名は注文時点のスナップショット
type OrderItem struct {
	ID          int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     int64             `gorm:"not null;index" json:"order_id"`
	ProductID   int64             `gorm:"not null;index" json:"product_id"`
	ProductName string            `gorm:"type:varchar(255);not null" json:"product_name"`
	UnitPrice   decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Quantity    int64             `gorm:"not null" json:"quantity"`
	Specs       datatypes.JSONMap `json:"specs,omitempty"`
	Notes       string            `gorm:"type:text" json:"notes"`
	//作成時に在庫を減らしたか（キャンセル時の戻しはこれを見る）
	StockDeducted bool      `gorm:"not null;default:false" json:"stock_deducted"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (it OrderItem) Subtotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity))
}
