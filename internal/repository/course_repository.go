package repository

import (
	"context"

	"coursepay/internal/domain/model"
)

// コースの参照だけを約束。論理削除済みも返す（判定はusecase側）。
type CourseRepository interface {
	FindByID(ctx context.Context, id int64) (model.Course, error)

	//FOR SHARE付き。注文作成のTx内で使う
	FindByIDForShare(ctx context.Context, id int64) (model.Course, error)
}
