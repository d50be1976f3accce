package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// クーポン。どのクーポンが最適かは選ばない（渡されたコードをそのまま適用する）。
type Coupon struct {
	ID   int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Code string `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`

	//nilなら全コース対象
	CourseID *int64 `gorm:"index" json:"course_id"`

	//PercentOff（0.15 = 15%）か AmountOff のどちらか
	PercentOff  decimal.Decimal `gorm:"type:numeric(5,4);not null;default:0" json:"percent_off"`
	AmountOff   int64           `gorm:"not null;default:0" json:"amount_off"`
	MaxDiscount int64           `gorm:"not null;default:0" json:"max_discount"`

	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
	IsActive bool       `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 指定時刻で使えるか
func (c Coupon) IsUsableAt(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return false
	}
	if c.EndsAt != nil && !now.Before(*c.EndsAt) {
		return false
	}
	return true
}

func (c Coupon) AppliesTo(courseID int64) bool {
	return c.CourseID == nil || *c.CourseID == courseID
}
