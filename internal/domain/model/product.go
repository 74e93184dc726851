package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID    *int64          `gorm:"index" json:"category_id"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	OriginalPrice decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"original_price"`
	//在庫はマイナスにならない（減算は条件付きUPDATEのみ）
	StockQuantity int64 `gorm:"column:stock_quantity;not null;default:0" json:"stock_quantity"`
	SalesCount    int64 `gorm:"not null;default:0" json:"sales_count"`
	IsAvailable   bool  `gorm:"not null;index" json:"is_available"`
	IsFeatured    bool  `gorm:"not null;default:false" json:"is_featured"`
	SortOrder     int   `gorm:"not null;default:0" json:"sort_order"`
	//画像パス（相対 or 絶対URL）
	Images    []string  `gorm:"type:text;serializer:json" json:"images"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
