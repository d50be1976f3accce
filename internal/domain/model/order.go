package model

import "time"

type OrderStatus string

const (
	OrderStatusDraft         OrderStatus = "DRAFT"
	OrderStatusPending       OrderStatus = "PENDING"
	OrderStatusProcessing    OrderStatus = "PROCESSING"
	OrderStatusPaid          OrderStatus = "PAID"
	OrderStatusFailed        OrderStatus = "FAILED"
	OrderStatusCancelled     OrderStatus = "CANCELLED"
	OrderStatusRefunded      OrderStatus = "REFUNDED"
	OrderStatusPartialRefund OrderStatus = "PARTIAL_REFUND"
	OrderStatusExpired       OrderStatus = "EXPIRED"
)

// 終端ステータス。ここに入ったら決済コールバックでは二度と変えない。
var TerminalOrderStatuses = []OrderStatus{
	OrderStatusPaid,
	OrderStatusFailed,
	OrderStatusCancelled,
	OrderStatusRefunded,
	OrderStatusPartialRefund,
	OrderStatusExpired,
}

func (s OrderStatus) IsTerminal() bool {
	for _, t := range TerminalOrderStatuses {
		if s == t {
			return true
		}
	}
	return false
}

type OrderType string

const (
	OrderTypePurchase OrderType = "PURCHASE"
)

// 注文番号の先頭に付くチェックアウト種別
type CheckoutContext string

const (
	CheckoutContextBuyNow CheckoutContext = "BUY_NOW"
	CheckoutContextCart   CheckoutContext = "CART"
)

type Currency string

const (
	CurrencyVND Currency = "VND"
)

type PaymentMethod string

const (
	PaymentMethodMomoWallet PaymentMethod = "MOMO_WALLET"
)

// 1回のチェックアウト
// 金額は作成時に一度だけ計算して、後から再計算しない。
type Order struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber string          `gorm:"type:varchar(100);not null;uniqueIndex" json:"order_number"`
	UserID      int64           `gorm:"not null;index" json:"user_id"`
	Context     CheckoutContext `gorm:"type:varchar(20);not null" json:"context"`
	OrderType   OrderType       `gorm:"type:varchar(20);not null" json:"order_type"`
	Status      OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	Currency    Currency        `gorm:"type:varchar(3);not null" json:"currency"`

	SubtotalAmount int64 `gorm:"not null" json:"subtotal_amount"`
	DiscountAmount int64 `gorm:"not null" json:"discount_amount"`
	TaxAmount      int64 `gorm:"not null;default:0" json:"tax_amount"`
	FeeAmount      int64 `gorm:"not null;default:0" json:"fee_amount"`
	TotalAmount    int64 `gorm:"not null" json:"total_amount"`

	//決済セッション作成後にセット
	PaymentMethod    PaymentMethod `gorm:"type:varchar(30)" json:"payment_method"`
	PaymentReference string        `gorm:"type:varchar(100);index" json:"payment_reference"`

	//DRAFT→PENDING（実際に決済を依頼した時刻）
	OrderedAt *time.Time `json:"ordered_at"`
	//終端ステータスになった時刻
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
