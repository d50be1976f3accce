package usecase_test

import (
	"testing"
	"time"

	"coursepay/internal/domain/model"
	"coursepay/internal/usecase"

	"go.uber.org/zap"
)

const (
	buyerID     int64 = 7
	courseID    int64 = 42
	coursePrice int64 = 100000
)

type fixture struct {
	store     *memStore
	users     *memUsers
	clock     *fixedClock
	gateway   *stubGateway
	oracle    *stubOracle
	checkout  *usecase.CheckoutUsecase
	callbacks *usecase.PaymentCallbackUsecase
	orders    *usecase.OrderUsecase
	admin     *usecase.AdminOrderUsecase
	cache     *memCache
	events    *memPublisher
}

type fixtureOption func(cfg *usecase.PaymentCallbackConfig)

func withReturnReportOnly() fixtureOption {
	return func(cfg *usecase.PaymentCallbackConfig) { cfg.ReturnAppliesResult = false }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	store := newMemStore()
	store.addCourse(model.Course{
		ID:        courseID,
		Title:     "Go in Practice",
		Thumbnail: "https://cdn.test/42.png",
		Price:     coursePrice,
		Status:    model.CourseStatusApproved,
	})

	users := &memUsers{users: map[int64]model.User{
		buyerID: {ID: buyerID, Email: "buyer@test.com", Role: model.RoleUser, IsActive: true},
		8:       {ID: 8, Email: "other@test.com", Role: model.RoleUser, IsActive: true},
		9:       {ID: 9, Email: "stopped@test.com", Role: model.RoleUser, IsActive: false},
		100:     {ID: 100, Email: "admin@test.com", Role: model.RoleAdmin, IsActive: true},
	}}

	clock := &fixedClock{t: time.Date(2025, 2, 8, 10, 0, 0, 0, time.UTC)}
	gateway := &stubGateway{requestID: "REQ123"}
	oracle := &stubOracle{coupons: map[string]int64{"SAVE20K": 20000, "ALLFREE": 1_000_000}}
	logger := zap.NewNop()

	cfg := usecase.PaymentCallbackConfig{
		Codes:               usecase.DefaultResultCodes(),
		ReturnAppliesResult: true,
	}
	for _, o := range opts {
		o(&cfg)
	}

	cache := newMemCache()
	events := &memPublisher{}

	builder := usecase.NewSnapshotBuilder(oracle)
	writer := usecase.NewOrderSnapshotWriter(clock)
	fulfiller := usecase.NewFulfiller(clock, logger)

	return &fixture{
		store:     store,
		users:     users,
		clock:     clock,
		gateway:   gateway,
		oracle:    oracle,
		checkout:  usecase.NewCheckoutUsecase(store, users, builder, writer, gateway, clock, logger),
		callbacks: usecase.NewPaymentCallbackUsecase(store, store.Orders(), gateway, fulfiller, cache, events, clock, cfg, logger),
		orders:    usecase.NewOrderUsecase(store, logger),
		admin:     usecase.NewAdminOrderUsecase(store, clock, logger),
		cache:     cache,
		events:    events,
	}
}

// 成功コールバック（金額は注文合計）
func successCallback(orderNumber string, amount int64) usecase.PaymentCallback {
	return usecase.PaymentCallback{
		PartnerCode: "MOMOTEST",
		OrderID:     orderNumber,
		RequestID:   "REQ123",
		Amount:      amount,
		TransID:     4088878653,
		ResultCode:  0,
		Message:     "Successful.",
		PayType:     "qr",
	}
}

func callbackWithCode(orderNumber string, amount int64, code int, message string) usecase.PaymentCallback {
	cb := successCallback(orderNumber, amount)
	cb.ResultCode = code
	cb.Message = message
	cb.TransID = 0
	return cb
}
