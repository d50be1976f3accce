package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"coursepay/internal/domain/model"
	repo "coursepay/internal/repository"

	"go.uber.org/zap"
)

const maxCouponCodeLen = 64

type CheckoutUsecase struct {
	tx      repo.TransactionManager
	users   repo.UserRepository
	builder *SnapshotBuilder
	writer  *OrderSnapshotWriter
	gateway PaymentGateway
	clock   Clock
	logger  *zap.Logger
}

// DI
func NewCheckoutUsecase(
	tx repo.TransactionManager,
	users repo.UserRepository,
	builder *SnapshotBuilder,
	writer *OrderSnapshotWriter,
	gateway PaymentGateway,
	clock Clock,
	logger *zap.Logger,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:      tx,
		users:   users,
		builder: builder,
		writer:  writer,
		gateway: gateway,
		clock:   clock,
		logger:  logger,
	}
}

type BuyNowInput struct {
	CourseID   int64
	CouponCode string
}

// 決済URLか、無料コースなら NoPaymentRequired
type CheckoutOutput struct {
	PayURL            string `json:"pay_url,omitempty"`
	OrderNumber       string `json:"order_number,omitempty"`
	NoPaymentRequired bool   `json:"no_payment_required,omitempty"`
}

func (u *CheckoutUsecase) BuyNow(ctx context.Context, userID int64, in BuyNowInput) (CheckoutOutput, error) {
	if err := u.checkActor(ctx, userID); err != nil {
		return CheckoutOutput{}, err
	}
	if in.CourseID <= 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "invalid course_id")
	}
	coupon := strings.TrimSpace(in.CouponCode)
	if len(coupon) > maxCouponCodeLen {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "invalid coupon_code")
	}

	var (
		order model.Order
		free  bool
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		course, err := r.Courses().FindByIDForShare(ctx, in.CourseID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrCourseUnavailable
		}
		if err != nil {
			return fmt.Errorf("find course: %w", err)
		}
		if !course.IsAvailable() {
			return ErrCourseUnavailable
		}

		//無料コースは注文を作らずに受講権だけ
		if course.IsFree() {
			free = true
			return u.enrollFree(ctx, r, userID, course.ID)
		}

		lines, err := u.builder.Build(ctx, r, userID, []int64{in.CourseID}, coupon)
		if err != nil {
			return err
		}
		if totalOf(lines) <= 0 {
			return ErrNothingToCharge
		}

		order, _, err = u.writer.Write(ctx, r, userID, lines, model.CheckoutContextBuyNow)
		return err
	})
	if err != nil {
		return CheckoutOutput{}, toPublicError(u.logger, "buy now failed", err)
	}
	if free {
		u.logger.Info("free course enrolled", zap.Int64("user_id", userID), zap.Int64("course_id", in.CourseID))
		return CheckoutOutput{NoPaymentRequired: true}, nil
	}

	//決済セッションはTxの外で作る（失敗したら注文はDRAFTのまま）
	session, err := u.gateway.CreatePayment(ctx, paymentRequestFor(order))
	if err != nil {
		u.logger.Error("create payment session failed",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
		return CheckoutOutput{}, ErrGatewayUnavailable
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		return u.markPending(ctx, r, order, session)
	})
	if err != nil {
		return CheckoutOutput{}, toPublicError(u.logger, "mark order pending failed", err)
	}

	return CheckoutOutput{PayURL: session.PayURL, OrderNumber: order.OrderNumber}, nil
}

// カート全体を1つの注文にする。ゲートウェイが失敗したら全部ロールバック。
func (u *CheckoutUsecase) CartCheckout(ctx context.Context, userID int64) (CheckoutOutput, error) {
	if err := u.checkActor(ctx, userID); err != nil {
		return CheckoutOutput{}, err
	}

	var out CheckoutOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		courseIDs, err := r.CartItems().ListCourseIDsForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("list cart: %w", err)
		}
		if len(courseIDs) == 0 {
			return ErrEmptyCart
		}

		lines, err := u.builder.Build(ctx, r, userID, courseIDs, "")
		if err != nil {
			return err
		}
		if totalOf(lines) <= 0 {
			return ErrNothingToCharge
		}

		order, _, err := u.writer.Write(ctx, r, userID, lines, model.CheckoutContextCart)
		if err != nil {
			return err
		}

		session, err := u.gateway.CreatePayment(ctx, paymentRequestFor(order))
		if err != nil {
			u.logger.Error("create payment session failed",
				zap.String("order_number", order.OrderNumber),
				zap.Error(err),
			)
			return ErrGatewayUnavailable
		}

		if err := u.markPending(ctx, r, order, session); err != nil {
			return err
		}

		out = CheckoutOutput{PayURL: session.PayURL, OrderNumber: order.OrderNumber}
		return nil
	})
	if err != nil {
		return CheckoutOutput{}, toPublicError(u.logger, "cart checkout failed", err)
	}
	return out, nil
}

func (u *CheckoutUsecase) checkActor(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrUserNotFound) {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err != nil {
		return toPublicError(u.logger, "find user failed", err)
	}
	if user == nil || !user.IsActive {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return nil
}

func (u *CheckoutUsecase) enrollFree(ctx context.Context, r repo.TxRepos, userID int64, courseID int64) error {
	owned, err := r.Enrollments().HasActive(ctx, userID, courseID)
	if err != nil {
		return fmt.Errorf("check enrollment: %w", err)
	}
	if owned {
		return ErrCourseAlreadyFree
	}
	if err := r.Enrollments().Upsert(ctx, model.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		Status:     model.EnrollmentStatusActive,
		Source:     model.EnrollmentSourceFree,
		EnrolledAt: u.clock.Now(),
	}); err != nil {
		return fmt.Errorf("enroll free course: %w", err)
	}
	return nil
}

// DRAFTのときだけPENDINGへ。既にコールバックで終端になっていたら何もしない。
func (u *CheckoutUsecase) markPending(ctx context.Context, r repo.TxRepos, order model.Order, session PaymentSession) error {
	now := u.clock.Now()

	ok, err := r.Orders().MarkPending(ctx, order.ID, model.PaymentMethodMomoWallet, session.RequestID, now)
	if err != nil {
		return fmt.Errorf("mark pending: %w", err)
	}
	if !ok {
		u.logger.Info("order left draft before payment was requested",
			zap.String("order_number", order.OrderNumber),
		)
		return nil
	}

	if err := r.AuditLogs().Create(ctx, orderAudit(order.UserID, model.AuditActionPaymentRequested, order,
		"payment session created", map[string]interface{}{
			"request_id": session.RequestID,
			"method":     string(model.PaymentMethodMomoWallet),
		}, now)); err != nil {
		return fmt.Errorf("audit payment requested: %w", err)
	}
	return nil
}

func paymentRequestFor(order model.Order) PaymentRequest {
	return PaymentRequest{
		OrderNumber: order.OrderNumber,
		Amount:      order.TotalAmount,
		OrderInfo:   "Payment for order " + order.OrderNumber,
	}
}

func totalOf(lines []PricedLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.Quote.OriginalPrice - l.Quote.DiscountAmount
	}
	return total
}
