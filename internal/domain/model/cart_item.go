package model

import (
	"time"

	"gorm.io/gorm"
)

// カートの1行。削除は論理削除。
// 価格は持たない（チェックアウト時にスナップショットを取る）。
type CartItem struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64          `gorm:"not null;index" json:"user_id"`
	CourseID  int64          `gorm:"not null;index" json:"course_id"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
