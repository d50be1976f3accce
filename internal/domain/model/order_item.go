package model

import "time"

// 注文明細
// コース名・サムネイル・価格は注文時点のスナップショット。カタログが変わってもここは変えない。
type OrderItem struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID         int64     `gorm:"not null;index" json:"order_id"`
	CourseID        int64     `gorm:"not null;index" json:"course_id"`
	CourseTitle     string    `gorm:"type:varchar(255);not null" json:"course_title"`
	CourseThumbnail string    `gorm:"type:varchar(500)" json:"course_thumbnail"`
	OriginalPrice   int64     `gorm:"not null" json:"original_price"`
	DiscountAmount  int64     `gorm:"not null" json:"discount_amount"`
	DiscountedPrice int64     `gorm:"not null" json:"discounted_price"`
	FinalPrice      int64     `gorm:"not null" json:"final_price"`
	CreatedAt       time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
