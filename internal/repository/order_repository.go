package repository

import (
	"context"
	"time"

	"coursepay/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

// 終端ステータスへの遷移内容
type TerminalTransition struct {
	Status           model.OrderStatus
	PaymentReference string
	CompletedAt      time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (model.Order, error)

	//SELECT ... FOR UPDATE。Tx内で使う
	FindByOrderNumberForUpdate(ctx context.Context, orderNumber string) (model.Order, error)

	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)

	//DRAFTのときだけPENDINGにする。更新できたらtrue
	MarkPending(ctx context.Context, orderID int64, method model.PaymentMethod, reference string, orderedAt time.Time) (bool, error)

	//終端でないときだけ終端にする。更新できたらtrue（falseなら他が先に終端にした）
	MarkTerminal(ctx context.Context, orderID int64, t TerminalTransition) (bool, error)

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
