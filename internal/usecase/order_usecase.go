package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"coursepay/internal/domain/model"
	repo "coursepay/internal/repository"

	"go.uber.org/zap"
)

type OrderUsecase struct {
	tx     repo.TransactionManager
	logger *zap.Logger
}

func NewOrderUsecase(tx repo.TransactionManager, logger *zap.Logger) *OrderUsecase {
	return &OrderUsecase{tx: tx, logger: logger}
}

type OrderItemOutput struct {
	CourseID        int64  `json:"course_id"`
	CourseTitle     string `json:"course_title"`
	CourseThumbnail string `json:"course_thumbnail"`
	OriginalPrice   int64  `json:"original_price"`
	DiscountAmount  int64  `json:"discount_amount"`
	FinalPrice      int64  `json:"final_price"`
}

type OrderOutput struct {
	ID               int64             `json:"id"`
	OrderNumber      string            `json:"order_number"`
	UserID           int64             `json:"user_id"`
	Status           string            `json:"status"`
	Currency         string            `json:"currency"`
	SubtotalAmount   int64             `json:"subtotal_amount"`
	DiscountAmount   int64             `json:"discount_amount"`
	TaxAmount        int64             `json:"tax_amount"`
	FeeAmount        int64             `json:"fee_amount"`
	TotalAmount      int64             `json:"total_amount"`
	PaymentMethod    string            `json:"payment_method"`
	PaymentReference string            `json:"payment_reference"`
	OrderedAt        *time.Time        `json:"ordered_at"`
	CompletedAt      *time.Time        `json:"completed_at"`
	CreatedAt        time.Time         `json:"created_at"`
	Items            []OrderItemOutput `json:"items"`

	//詳細のときだけ
	History []OrderHistoryOutput `json:"history,omitempty"`
}

type OrderHistoryOutput struct {
	Action    string    `json:"action"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	//ページングでまずは固定で取る
	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, 1, 50)
		if err != nil {
			return err
		}

		outs, err = withItems(ctx, r, orders)
		return err
	})

	if err != nil {
		return []OrderOutput{}, toPublicError(u.logger, "list orders failed", err)
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrder(ctx context.Context, userID int64, orderNumber string) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" || len(orderNumber) > 100 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order_number")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByOrderNumber(ctx, orderNumber)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return ErrOrderNotFound
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return err
		}

		logs, err := r.AuditLogs().ListByOrder(ctx, o.ID, 0)
		if err != nil {
			return err
		}

		out = toOrderOutput(o, items)
		out.History = make([]OrderHistoryOutput, 0, len(logs))
		for _, l := range logs {
			out.History = append(out.History, OrderHistoryOutput{
				Action:    string(l.Action),
				Message:   l.Message,
				CreatedAt: l.CreatedAt,
			})
		}
		return nil
	})

	if err != nil {
		return OrderOutput{}, toPublicError(u.logger, "get order failed", err)
	}
	return out, nil
}

func withItems(ctx context.Context, r repo.TxRepos, orders []model.Order) ([]OrderOutput, error) {
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	byOrder, err := r.OrderItems().ListByOrderIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o, byOrder[o.ID]))
	}
	return outs, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			CourseID:        it.CourseID,
			CourseTitle:     it.CourseTitle,
			CourseThumbnail: it.CourseThumbnail,
			OriginalPrice:   it.OriginalPrice,
			DiscountAmount:  it.DiscountAmount,
			FinalPrice:      it.FinalPrice,
		})
	}

	return OrderOutput{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		UserID:           o.UserID,
		Status:           string(o.Status),
		Currency:         string(o.Currency),
		SubtotalAmount:   o.SubtotalAmount,
		DiscountAmount:   o.DiscountAmount,
		TaxAmount:        o.TaxAmount,
		FeeAmount:        o.FeeAmount,
		TotalAmount:      o.TotalAmount,
		PaymentMethod:    string(o.PaymentMethod),
		PaymentReference: o.PaymentReference,
		OrderedAt:        o.OrderedAt,
		CompletedAt:      o.CompletedAt,
		CreatedAt:        o.CreatedAt,
		Items:            outItems,
	}
}
