package model

import (
	"strings"
	"time"
)

// 配達先住所
type Address struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	//宛名
	Name string `gorm:"type:varchar(100);not null" json:"name"`

	//電話番号
	Phone string `gorm:"type:varchar(30);not null" json:"phone"`

	Province string `gorm:"type:varchar(100)" json:"province"`
	City     string `gorm:"type:varchar(100)" json:"city"`
	District string `gorm:"type:varchar(100)" json:"district"`

	//番地・建物名など
	Detail string `gorm:"type:varchar(255);not null" json:"detail"`

	//このユーザーのデフォルト住所か
	IsDefault bool `gorm:"not null;default:false" json:"is_default"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 注文のdelivery_addressに入れる1行表記
func (a Address) FullText() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Province, a.City, a.District, a.Detail} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
