package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"coursepay/internal/domain/model"
	"coursepay/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// =====================
// BuyNow
// =====================

func TestCheckout_BuyNow_CreatesPendingOrderWithSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.checkout.BuyNow(ctx, buyerID, usecase.BuyNowInput{CourseID: courseID})
	require.NoError(t, err)

	wantNumber := fmt.Sprintf("BUY_NOW_7_%d", f.clock.Now().UnixMilli())
	assert.Equal(t, wantNumber, out.OrderNumber)
	assert.Equal(t, "https://pay.test/"+wantNumber, out.PayURL)
	assert.False(t, out.NoPaymentRequired)

	o, ok := f.store.order(wantNumber)
	require.True(t, ok)
	assert.Equal(t, model.OrderStatusPending, o.Status)
	assert.Equal(t, model.CheckoutContextBuyNow, o.Context)
	assert.Equal(t, model.CurrencyVND, o.Currency)
	assert.Equal(t, model.PaymentMethodMomoWallet, o.PaymentMethod)
	assert.Equal(t, "REQ123", o.PaymentReference)
	assert.Equal(t, coursePrice, o.SubtotalAmount)
	assert.Equal(t, int64(0), o.DiscountAmount)
	assert.Equal(t, int64(0), o.TaxAmount)
	assert.Equal(t, int64(0), o.FeeAmount)
	assert.Equal(t, coursePrice, o.TotalAmount)
	require.NotNil(t, o.OrderedAt)
	assert.Nil(t, o.CompletedAt)

	s := f.store.snapshot()
	require.Len(t, s.items, 1)
	assert.Equal(t, o.ID, s.items[0].OrderID)
	assert.Equal(t, "Go in Practice", s.items[0].CourseTitle)
	assert.Equal(t, "https://cdn.test/42.png", s.items[0].CourseThumbnail)
	assert.Equal(t, coursePrice, s.items[0].FinalPrice)

	assert.Equal(t, []model.AuditAction{
		model.AuditActionCheckoutCreated,
		model.AuditActionPaymentRequested,
	}, f.store.auditActions(o.ID))

	require.Equal(t, 1, f.gateway.createdCount())
	assert.Equal(t, coursePrice, f.gateway.created[0].Amount)
	assert.Equal(t, wantNumber, f.gateway.created[0].OrderNumber)

	//受講権はまだ付与しない
	assert.Empty(t, f.store.enrollmentsOf(buyerID))
}

func TestCheckout_BuyNow_CouponKeepsTotalsInvariant(t *testing.T) {
	f := newFixture(t)

	out, err := f.checkout.BuyNow(context.Background(), buyerID, usecase.BuyNowInput{CourseID: courseID, CouponCode: " SAVE20K "})
	require.NoError(t, err)

	o, ok := f.store.order(out.OrderNumber)
	require.True(t, ok)
	assert.Equal(t, int64(100000), o.SubtotalAmount)
	assert.Equal(t, int64(20000), o.DiscountAmount)
	assert.Equal(t, int64(80000), o.TotalAmount)
	assert.Equal(t, o.SubtotalAmount-o.DiscountAmount+o.TaxAmount+o.FeeAmount, o.TotalAmount)

	s := f.store.snapshot()
	require.Len(t, s.items, 1)
	it := s.items[0]
	assert.Equal(t, int64(100000), it.OriginalPrice)
	assert.Equal(t, int64(20000), it.DiscountAmount)
	assert.Equal(t, int64(80000), it.FinalPrice)
	assert.Equal(t, it.FinalPrice, it.DiscountedPrice)
}

func TestCheckout_BuyNow_InvalidCoupon(t *testing.T) {
	f := newFixture(t)

	_, err := f.checkout.BuyNow(context.Background(), buyerID, usecase.BuyNowInput{CourseID: courseID, CouponCode: "NOPE"})
	assert.ErrorIs(t, err, usecase.ErrInvalidCoupon)
	assert.Empty(t, f.store.snapshot().orders)
	assert.Equal(t, 0, f.gateway.createdCount())
}

func TestCheckout_BuyNow_NothingToCharge(t *testing.T) {
	f := newFixture(t)

	_, err := f.checkout.BuyNow(context.Background(), buyerID, usecase.BuyNowInput{CourseID: courseID, CouponCode: "ALLFREE"})
	assert.ErrorIs(t, err, usecase.ErrNothingToCharge)
	assert.Empty(t, f.store.snapshot().orders)
}

func TestCheckout_BuyNow_FreeCourse(t *testing.T) {
	f := newFixture(t)
	f.store.addCourse(model.Course{ID: 50, Title: "Intro", Price: 0, Status: model.CourseStatusApproved})
	ctx := context.Background()

	out, err := f.checkout.BuyNow(ctx, buyerID, usecase.BuyNowInput{CourseID: 50})
	require.NoError(t, err)
	assert.True(t, out.NoPaymentRequired)
	assert.Empty(t, out.PayURL)
	assert.Empty(t, out.OrderNumber)

	enrollments := f.store.enrollmentsOf(buyerID)
	require.Len(t, enrollments, 1)
	assert.Equal(t, int64(50), enrollments[0].CourseID)
	assert.Equal(t, model.EnrollmentSourceFree, enrollments[0].Source)
	assert.Nil(t, enrollments[0].OrderID)

	assert.Empty(t, f.store.snapshot().orders)
	assert.Equal(t, 0, f.gateway.createdCount())

	//2回目は既に受講中
	_, err = f.checkout.BuyNow(ctx, buyerID, usecase.BuyNowInput{CourseID: 50})
	assert.ErrorIs(t, err, usecase.ErrCourseAlreadyFree)
	assert.Len(t, f.store.enrollmentsOf(buyerID), 1)
}

func TestCheckout_BuyNow_AlreadyOwned(t *testing.T) {
	f := newFixture(t)
	f.store.addEnrollment(model.Enrollment{
		UserID: buyerID, CourseID: courseID,
		Status: model.EnrollmentStatusActive, Source: model.EnrollmentSourcePurchase,
	})

	_, err := f.checkout.BuyNow(context.Background(), buyerID, usecase.BuyNowInput{CourseID: courseID})
	assert.ErrorIs(t, err, usecase.ErrAlreadyOwned)

	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, he.Status)
}

func TestCheckout_BuyNow_CourseUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		course *model.Course
	}{
		{name: "missing"},
		{name: "not approved", course: &model.Course{ID: 60, Price: 1000, Status: model.CourseStatusPendingReview}},
		{name: "rejected", course: &model.Course{ID: 60, Price: 1000, Status: model.CourseStatusRejected}},
		{name: "deleted", course: &model.Course{ID: 60, Price: 1000, Status: model.CourseStatusApproved,
			DeletedAt: gorm.DeletedAt{Valid: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.course != nil {
				f.store.addCourse(*tt.course)
			}

			_, err := f.checkout.BuyNow(context.Background(), buyerID, usecase.BuyNowInput{CourseID: 60})
			assert.ErrorIs(t, err, usecase.ErrCourseUnavailable)
			assert.Empty(t, f.store.snapshot().orders)
		})
	}
}

func TestCheckout_BuyNow_GatewayFailureLeavesDraft(t *testing.T) {
	f := newFixture(t)
	f.gateway.createErr = errors.New("connection refused")

	_, err := f.checkout.BuyNow(context.Background(), buyerID, usecase.BuyNowInput{CourseID: courseID})
	assert.ErrorIs(t, err, usecase.ErrGatewayUnavailable)

	orders := f.store.snapshot().orders
	require.Len(t, orders, 1)
	assert.Equal(t, model.OrderStatusDraft, orders[0].Status)
	assert.Empty(t, orders[0].PaymentReference)
	assert.Equal(t, []model.AuditAction{model.AuditActionCheckoutCreated}, f.store.auditActions(orders[0].ID))
}

func TestCheckout_BuyNow_SameMillisecondConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.checkout.BuyNow(ctx, buyerID, usecase.BuyNowInput{CourseID: courseID})
	require.NoError(t, err)

	//時計を進めないので注文番号が衝突する
	_, err = f.checkout.BuyNow(ctx, buyerID, usecase.BuyNowInput{CourseID: courseID})
	assert.ErrorIs(t, err, usecase.ErrCheckoutConflict)
	assert.Len(t, f.store.snapshot().orders, 1)

	f.clock.advance(time.Millisecond)
	_, err = f.checkout.BuyNow(ctx, buyerID, usecase.BuyNowInput{CourseID: courseID})
	require.NoError(t, err)
	assert.Len(t, f.store.snapshot().orders, 2)
}

func TestCheckout_BuyNow_InvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.checkout.BuyNow(ctx, buyerID, usecase.BuyNowInput{CourseID: 0})
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)

	long := make([]byte, 65)
	for i := range long {
		long[i] = 'A'
	}
	_, err = f.checkout.BuyNow(ctx, buyerID, usecase.BuyNowInput{CourseID: courseID, CouponCode: string(long)})
	he, ok = usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Status)
}

func TestCheckout_RejectsUnknownOrInactiveActor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, userID := range []int64{0, 555, 9} {
		_, err := f.checkout.BuyNow(ctx, userID, usecase.BuyNowInput{CourseID: courseID})
		he, ok := usecase.AsHTTPError(err)
		require.True(t, ok, "user %d", userID)
		assert.Equal(t, http.StatusUnauthorized, he.Status, "user %d", userID)

		_, err = f.checkout.CartCheckout(ctx, userID)
		he, ok = usecase.AsHTTPError(err)
		require.True(t, ok, "user %d", userID)
		assert.Equal(t, http.StatusUnauthorized, he.Status, "user %d", userID)
	}
	assert.Empty(t, f.store.snapshot().orders)
}

// =====================
// CartCheckout
// =====================

func TestCheckout_Cart_CreatesSingleOrder(t *testing.T) {
	f := newFixture(t)
	f.store.addCourse(model.Course{ID: 43, Title: "Concurrency", Price: 250000, Status: model.CourseStatusApproved})
	f.store.addCartItem(buyerID, courseID)
	f.store.addCartItem(buyerID, 43)
	f.store.addCartItem(buyerID, courseID) // 重複行
	f.store.addCartItem(8, 43)             // 他人のカート

	out, err := f.checkout.CartCheckout(context.Background(), buyerID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("CART_7_%d", f.clock.Now().UnixMilli()), out.OrderNumber)
	assert.NotEmpty(t, out.PayURL)

	o, ok := f.store.order(out.OrderNumber)
	require.True(t, ok)
	assert.Equal(t, model.OrderStatusPending, o.Status)
	assert.Equal(t, model.CheckoutContextCart, o.Context)
	assert.Equal(t, int64(350000), o.SubtotalAmount)
	assert.Equal(t, int64(350000), o.TotalAmount)

	var courses []int64
	for _, it := range f.store.snapshot().items {
		courses = append(courses, it.CourseID)
	}
	assert.Equal(t, []int64{courseID, 43}, courses)

	//カートは決済成功まで残す
	assert.ElementsMatch(t, []int64{courseID, 43, courseID}, f.store.liveCart(buyerID))
}

func TestCheckout_Cart_Empty(t *testing.T) {
	f := newFixture(t)

	_, err := f.checkout.CartCheckout(context.Background(), buyerID)
	assert.ErrorIs(t, err, usecase.ErrEmptyCart)
}

func TestCheckout_Cart_GatewayFailureRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	f.store.addCartItem(buyerID, courseID)
	f.gateway.createErr = errors.New("timeout")

	_, err := f.checkout.CartCheckout(context.Background(), buyerID)
	assert.ErrorIs(t, err, usecase.ErrGatewayUnavailable)

	s := f.store.snapshot()
	assert.Empty(t, s.orders)
	assert.Empty(t, s.items)
	assert.Empty(t, s.audits)
	assert.Equal(t, []int64{courseID}, f.store.liveCart(buyerID))
}

func TestCheckout_Cart_OneBadCourseRejectsWholeCart(t *testing.T) {
	f := newFixture(t)
	f.store.addCourse(model.Course{ID: 44, Title: "Draft", Price: 1000, Status: model.CourseStatusDraft})
	f.store.addCartItem(buyerID, courseID)
	f.store.addCartItem(buyerID, 44)

	_, err := f.checkout.CartCheckout(context.Background(), buyerID)
	assert.ErrorIs(t, err, usecase.ErrCourseUnavailable)
	assert.Empty(t, f.store.snapshot().orders)
	assert.Equal(t, 0, f.gateway.createdCount())
}

func TestCheckout_Cart_OwnedCourseRejected(t *testing.T) {
	f := newFixture(t)
	f.store.addCartItem(buyerID, courseID)
	f.store.addEnrollment(model.Enrollment{
		UserID: buyerID, CourseID: courseID,
		Status: model.EnrollmentStatusActive, Source: model.EnrollmentSourceFree,
	})

	_, err := f.checkout.CartCheckout(context.Background(), buyerID)
	assert.ErrorIs(t, err, usecase.ErrAlreadyOwned)
}
