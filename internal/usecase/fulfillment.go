package usecase

import (
	"context"
	"fmt"

	"coursepay/internal/domain/model"
	repo "coursepay/internal/repository"

	"go.uber.org/zap"
)

// 決済成功した注文の受講権を付与する。
// 呼び出し側のTx（注文行をロック済み）の中で使う。
type Fulfiller struct {
	clock  Clock
	logger *zap.Logger
}

func NewFulfiller(clock Clock, logger *zap.Logger) *Fulfiller {
	return &Fulfiller{clock: clock, logger: logger}
}

// 付与したコースIDを返す
func (f *Fulfiller) Fulfill(ctx context.Context, r repo.TxRepos, order model.Order, detail map[string]interface{}) ([]int64, error) {
	now := f.clock.Now()

	items, err := r.OrderItems().ListByOrderID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	orderID := order.ID
	courseIDs := courseIDsOf(items)
	for _, courseID := range courseIDs {
		//既にあれば何もしない
		if err := r.Enrollments().Upsert(ctx, model.Enrollment{
			UserID:     order.UserID,
			CourseID:   courseID,
			Status:     model.EnrollmentStatusActive,
			Source:     model.EnrollmentSourcePurchase,
			OrderID:    &orderID,
			EnrolledAt: now,
		}); err != nil {
			return nil, fmt.Errorf("upsert enrollment %d: %w", courseID, err)
		}
	}

	//カートの片付けは失敗しても付与は止めない
	if err := r.CartItems().DeleteByUserAndCourses(ctx, order.UserID, courseIDs); err != nil {
		f.logger.Warn("clear cart after payment failed",
			zap.String("order_number", order.OrderNumber),
			zap.Int64("user_id", order.UserID),
			zap.Error(err),
		)
	}

	d := map[string]interface{}{"course_ids": courseIDs}
	for k, v := range detail {
		d[k] = v
	}
	if err := r.AuditLogs().Create(ctx, orderAudit(order.UserID, model.AuditActionPaymentSucceeded, order,
		fmt.Sprintf("payment succeeded, %d course(s) granted", len(courseIDs)), d, now)); err != nil {
		return nil, fmt.Errorf("audit payment succeeded: %w", err)
	}

	return courseIDs, nil
}
