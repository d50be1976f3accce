package usecase

import (
	"context"
	"errors"
	"fmt"

	"coursepay/internal/domain/model"
	repo "coursepay/internal/repository"
)

// 価格を確定した行からDRAFT注文と明細を作る。
// 合計はここで一度だけ計算する（後から再計算しない）。
type OrderSnapshotWriter struct {
	clock Clock
}

func NewOrderSnapshotWriter(clock Clock) *OrderSnapshotWriter {
	return &OrderSnapshotWriter{clock: clock}
}

// {context}_{userId}_{ミリ秒}
func orderNumber(cctx model.CheckoutContext, userID int64, millis int64) string {
	return fmt.Sprintf("%s_%d_%d", cctx, userID, millis)
}

func (w *OrderSnapshotWriter) Write(ctx context.Context, r repo.TxRepos, userID int64, lines []PricedLine, cctx model.CheckoutContext) (model.Order, []model.OrderItem, error) {
	now := w.clock.Now()

	var subtotal, discount int64
	items := make([]model.OrderItem, 0, len(lines))
	for _, l := range lines {
		final := l.Quote.OriginalPrice - l.Quote.DiscountAmount
		subtotal += l.Quote.OriginalPrice
		discount += l.Quote.DiscountAmount

		items = append(items, model.OrderItem{
			CourseID:        l.Course.ID,
			CourseTitle:     l.Course.Title,
			CourseThumbnail: l.Course.Thumbnail,
			OriginalPrice:   l.Quote.OriginalPrice,
			DiscountAmount:  l.Quote.DiscountAmount,
			DiscountedPrice: final,
			FinalPrice:      final,
			CreatedAt:       now,
		})
	}

	//税・手数料は扱わない
	var tax, fee int64
	order := model.Order{
		OrderNumber:    orderNumber(cctx, userID, now.UnixMilli()),
		UserID:         userID,
		Context:        cctx,
		OrderType:      model.OrderTypePurchase,
		Status:         model.OrderStatusDraft,
		Currency:       model.CurrencyVND,
		SubtotalAmount: subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		FeeAmount:      fee,
		TotalAmount:    subtotal - discount + tax + fee,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	orderID, err := r.Orders().Create(ctx, order)
	if errors.Is(err, repo.ErrDuplicate) {
		return model.Order{}, nil, ErrCheckoutConflict
	}
	if err != nil {
		return model.Order{}, nil, fmt.Errorf("create order: %w", err)
	}
	order.ID = orderID

	items, err = r.OrderItems().CreateSnapshot(ctx, orderID, items)
	if err != nil {
		return model.Order{}, nil, fmt.Errorf("create order items: %w", err)
	}

	if err := r.AuditLogs().Create(ctx, orderAudit(userID, model.AuditActionCheckoutCreated, order,
		"order created", map[string]interface{}{
			"context":      string(cctx),
			"total_amount": order.TotalAmount,
			"course_ids":   courseIDsOf(items),
		}, now)); err != nil {
		return model.Order{}, nil, fmt.Errorf("audit checkout: %w", err)
	}

	return order, items, nil
}

func courseIDsOf(items []model.OrderItem) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.CourseID)
	}
	return ids
}
