package repository

import (
	"context"

	"coursepay/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// ユーザーのカート行（論理削除以外）をロックしてコースIDを返す。
// 同じコースが複数行あっても1つにまとめる。
func (r *CartGormRepository) ListCourseIDsForUpdate(ctx context.Context, userID int64) ([]int64, error) {
	var items []model.CartItem

	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []int64{}, err
	}

	seen := make(map[int64]struct{}, len(items))
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.CourseID]; ok {
			continue
		}
		seen[it.CourseID] = struct{}{}
		ids = append(ids, it.CourseID)
	}
	return ids, nil
}

// 指定コースのカート行を論理削除。
// 外側のTx内ではSAVEPOINTになるので、失敗しても外側のTxは続行できる。
func (r *CartGormRepository) DeleteByUserAndCourses(ctx context.Context, userID int64, courseIDs []int64) error {
	if len(courseIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.
			Where("user_id = ? AND course_id IN ?", userID, courseIDs).
			Delete(&model.CartItem{}).Error
	})
}
