package repository

import (
	"context"

	"coursepay/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentGormRepository struct {
	db *gorm.DB
}

func NewEnrollmentGormRepository(db *gorm.DB) *EnrollmentGormRepository {
	return &EnrollmentGormRepository{db: db}
}

// INSERT ... ON CONFLICT (user_id, course_id) DO UPDATE ... WHERE status <> ACTIVE
// ACTIVEの行はそのまま。REVOKEDなど無効な行は再購入で有効に戻す。
func (r *EnrollmentGormRepository) Upsert(ctx context.Context, e model.Enrollment) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "source", "order_id", "enrolled_at"}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Neq{
					Column: clause.Column{Table: "enrollments", Name: "status"},
					Value:  string(model.EnrollmentStatusActive),
				},
			}},
		}).
		Create(&e).Error
}

func (r *EnrollmentGormRepository) HasActive(ctx context.Context, userID int64, courseID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, string(model.EnrollmentStatusActive)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *EnrollmentGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Enrollment, error) {
	var items []model.Enrollment
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.Enrollment{}, err
	}
	return items, nil
}
