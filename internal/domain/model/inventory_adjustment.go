package model

import "time"

// 在庫調整の履歴
type InventoryAdjustment struct {
	ID          int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64 `gorm:"not null;index" json:"product_id"`
	AdminUserID int64 `gorm:"not null;index" json:"admin_user_id"`
	//増減量（減算はマイナス）
	Delta     int64     `gorm:"not null" json:"delta"`
	Before    int64     `gorm:"column:stock_before;not null" json:"before"`
	After     int64     `gorm:"column:stock_after;not null" json:"after"`
	Reason    string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
