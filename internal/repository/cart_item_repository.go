package repository

import (
	"context"
)

type CartItemRepository interface {
	//削除されていないカート行のコースIDを古い順に。行はFOR UPDATEでロックする
	ListCourseIDsForUpdate(ctx context.Context, userID int64) ([]int64, error)

	//指定コースのカート行を論理削除
	DeleteByUserAndCourses(ctx context.Context, userID int64, courseIDs []int64) error
}
