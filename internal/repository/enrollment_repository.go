package repository

import (
	"context"

	"coursepay/internal/domain/model"
)

type EnrollmentRepository interface {
	// (user_id, course_id)が既にあれば何もしない
	Upsert(ctx context.Context, e model.Enrollment) error

	HasActive(ctx context.Context, userID int64, courseID int64) (bool, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Enrollment, error)
}
