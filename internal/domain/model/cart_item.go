package model

import (
	"time"

	"gorm.io/datatypes"
)

// カートの明細
// 同じ商品でもspecsが違えば別の行
type CartItem struct {
	ID        int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64             `gorm:"not null;uniqueIndex:idx_cart_items_identity" json:"user_id"`
	ProductID int64             `gorm:"not null;uniqueIndex:idx_cart_items_identity" json:"product_id"`
	Quantity  int64             `gorm:"not null" json:"quantity"`
	Specs     datatypes.JSONMap `json:"specs,omitempty"`
	//specsの正規化JSON（specsなしは空文字）
	SpecsKey  string    `gorm:"type:varchar(512);not null;default:'';uniqueIndex:idx_cart_items_identity" json:"-"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
