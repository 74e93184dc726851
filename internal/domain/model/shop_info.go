package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ShopInfoID            int64 = 1
	DefaultOpeningHours         = "08:00-22:00"
	openingHoursSeparator       = "-"
	clockLayout                 = "15:04"
)

// 店舗設定（1行だけ）
type ShopInfo struct {
	ID           int64  `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"type:varchar(100);not null" json:"name"`
	Phone        string `gorm:"type:varchar(30)" json:"phone"`
	Address      string `gorm:"type:text" json:"address"`
	OpeningHours string `gorm:"type:varchar(20);not null" json:"opening_hours"`
	IsOpen       bool   `gorm:"not null" json:"is_open"`
	Announcement string `gorm:"type:text" json:"announcement"`
	//配達の最低注文金額（0なら無制限）
	MinOrderAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"min_order_amount"`
	DeliveryFee    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"delivery_fee"`
	UpdatedAt      time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 行が無いときのデフォルト
func DefaultShopInfo() ShopInfo {
	return ShopInfo{
		ID:             ShopInfoID,
		Name:           "Shop",
		OpeningHours:   DefaultOpeningHours,
		IsOpen:         true,
		MinOrderAmount: decimal.Zero,
		DeliveryFee:    decimal.Zero,
	}
}

// 営業中か
// is_openがfalseなら閉店。時間帯は店舗のタイムゾーンで比較する。
func (s ShopInfo) IsOpenAt(t time.Time) bool {
	if !s.IsOpen {
		return false
	}
	start, end, err := ParseOpeningHours(s.OpeningHours)
	if err != nil {
		//読めない設定はフラグだけで判断
		return true
	}
	now := t.Hour()*60 + t.Minute()

	switch {
	case start == end:
		return true
	case start < end:
		return now >= start && now <= end
	default:
		//日付をまたぐ（例: 18:00-02:00）
		return now >= start || now <= end
	}
}

// "HH:MM-HH:MM" を0時からの分に変換
func ParseOpeningHours(v string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(v), openingHoursSeparator)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid opening hours %q", v)
	}
	start, err := parseClock(parts[0])
	if err != nil {
		return 0, 0, err
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// "HH:MM"（2桁ずつ、余分な文字は不可）を0時からの分に
func parseClock(v string) (int, error) {
	v = strings.TrimSpace(v)
	if len(v) != len(clockLayout) {
		return 0, fmt.Errorf("invalid clock %q", v)
	}
	t, err := time.Parse(clockLayout, v)
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q: %w", v, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
