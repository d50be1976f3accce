package model

import (
	"time"

	"gorm.io/gorm"
)

type CourseStatus string

const (
	CourseStatusDraft         CourseStatus = "DRAFT"
	CourseStatusPendingReview CourseStatus = "PENDING_REVIEW"
	CourseStatusApproved      CourseStatus = "APPROVED"
	CourseStatusRejected      CourseStatus = "REJECTED"
)

// カタログのコース。管理は別システムで、ここでは読むだけ。
type Course struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string         `gorm:"type:varchar(255);not null" json:"title"`
	Thumbnail string         `gorm:"type:varchar(500)" json:"thumbnail"`
	Price     int64          `gorm:"not null" json:"price"`
	Status    CourseStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// 購入できるのはAPPROVEDかつ削除されていないものだけ
func (c Course) IsAvailable() bool {
	return c.Status == CourseStatusApproved && !c.DeletedAt.Valid
}

func (c Course) IsFree() bool {
	return c.Price <= 0
}
