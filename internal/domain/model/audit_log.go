package model

import (
	"time"

	"gorm.io/datatypes"
)

// 注文履歴の種類。
type AuditAction string

const (
	//注文（DRAFT）を作成した。
	AuditActionCheckoutCreated AuditAction = "CHECKOUT_CREATED"
	//決済セッションを作成してPENDINGにした。
	AuditActionPaymentRequested AuditAction = "PAYMENT_REQUESTED"
	//決済成功→受講権付与。
	AuditActionPaymentSucceeded AuditAction = "PAYMENT_SUCCEEDED"
	//ユーザーが決済をキャンセルした。
	AuditActionPaymentCancelled AuditAction = "PAYMENT_CANCELLED"
	//それ以外の決済失敗。
	AuditActionPaymentFailed AuditAction = "PAYMENT_FAILED"
	//管理者が期限切れにした。
	AuditActionOrderExpired AuditAction = "ORDER_EXPIRED"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceOrder AuditResourceType = "order"
)

// 監査ログ（注文履歴）。
// 「誰が」「何を」「どの対象に」「どうなったか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作したユーザーのID。決済コールバックの場合は注文の持ち主。
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	ResourceID int64 `gorm:"not null;index" json:"resource_id"`

	//人が読む説明
	Message string `gorm:"type:text" json:"message"`

	//ゲートウェイのコード・メッセージなど
	Detail datatypes.JSON `json:"detail"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
