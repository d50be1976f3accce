package model

import "time"

type EnrollmentStatus string

const (
	EnrollmentStatusActive  EnrollmentStatus = "ACTIVE"
	EnrollmentStatusRevoked EnrollmentStatus = "REVOKED"
)

type EnrollmentSource string

const (
	EnrollmentSourcePurchase EnrollmentSource = "PURCHASE"
	EnrollmentSourceFree     EnrollmentSource = "FREE"
)

// 受講権。(user_id, course_id)で一意。
type Enrollment struct {
	ID         int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64            `gorm:"not null;uniqueIndex:ux_enrollments_user_course" json:"user_id"`
	CourseID   int64            `gorm:"not null;uniqueIndex:ux_enrollments_user_course;index" json:"course_id"`
	Status     EnrollmentStatus `gorm:"type:varchar(20);not null" json:"status"`
	Source     EnrollmentSource `gorm:"type:varchar(20);not null" json:"source"`
	OrderID    *int64           `gorm:"index" json:"order_id"`
	EnrolledAt time.Time        `gorm:"not null" json:"enrolled_at"`
}
