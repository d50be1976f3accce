package usecase

import (
	"context"
	"time"

	"coursepay/internal/domain/model"
	repo "coursepay/internal/repository"
)

// 現在の時間
type Clock interface {
	Now() time.Time
}

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 1コース分の価格
type Quote struct {
	OriginalPrice  int64
	DiscountAmount int64
	FinalPrice     int64
}

// 価格計算（クーポン適用）の約束。どのクーポンが最適かは選ばない。
type PricingOracle interface {
	Price(ctx context.Context, course model.Course, userID int64, couponCode string) (Quote, error)
}

// Tx内のリポジトリで読むPricingOracle。SnapshotBuilderはこれがあれば使う
type TxPricingOracle interface {
	PricingOracle
	InTx(r repo.TxRepos) PricingOracle
}

type PaymentRequest struct {
	OrderNumber string
	Amount      int64
	OrderInfo   string
}

// 決済セッション。RequestIDは注文のpayment_referenceに入る
type PaymentSession struct {
	RequestID string
	PayURL    string
}

// 外部決済ゲートウェイ（MoMo）の約束
type PaymentGateway interface {
	CreatePayment(ctx context.Context, req PaymentRequest) (PaymentSession, error)

	//署名とpartnerCodeを検証する。不正ならエラー
	VerifyCallback(cb PaymentCallback) error
}

// 終端ステータスのキャッシュ（重複コールバックをDBに行かずに返す）
type StatusCache interface {
	GetTerminal(ctx context.Context, orderNumber string) (model.OrderStatus, bool, error)
	PutTerminal(ctx context.Context, orderNumber string, status model.OrderStatus) error
}

// 注文が終端になったときのイベント
type OrderOutcomeEvent struct {
	OrderNumber      string            `json:"order_number"`
	UserID           int64             `json:"user_id"`
	Status           model.OrderStatus `json:"status"`
	TotalAmount      int64             `json:"total_amount"`
	PaymentReference string            `json:"payment_reference"`
	ResultCode       int               `json:"result_code"`
	Source           string            `json:"source"`
	OccurredAt       time.Time         `json:"occurred_at"`
}

type EventPublisher interface {
	PublishOrderOutcome(ctx context.Context, ev OrderOutcomeEvent) error
}
