package repository

import (
	"context"

	"coursepay/internal/domain/model"
)

// 明細は注文作成時のスナップショット。作ったら更新しない。
type OrderItemRepository interface {
	//orderIDを付けて保存し、ID付きの明細を返す
	CreateSnapshot(ctx context.Context, orderID int64, items []model.OrderItem) ([]model.OrderItem, error)

	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)

	//一覧表示用。注文IDごとにまとめて返す
	ListByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error)
}
