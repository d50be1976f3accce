package repository

import (
	"context"
	"errors"

	"coursepay/internal/domain/model"
	repo "coursepay/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CourseGormRepository struct {
	db *gorm.DB
}

// DI
func NewCourseGormRepository(db *gorm.DB) *CourseGormRepository {
	return &CourseGormRepository{db: db}
}

// IDでコースを取得（論理削除済みも含める。購入可否はusecaseが判断）
func (r *CourseGormRepository) FindByID(ctx context.Context, id int64) (model.Course, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// 注文作成中にカタログが変わらないよう共有ロックで読む
func (r *CourseGormRepository) FindByIDForShare(ctx context.Context, id int64) (model.Course, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "SHARE"}), id)
}

func (r *CourseGormRepository) find(q *gorm.DB, id int64) (model.Course, error) {
	var c model.Course
	err := q.Unscoped().First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Course{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Course{}, err
	}
	return c, nil
}
