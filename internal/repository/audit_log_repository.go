package repository

import (
	"context"

	"coursepay/internal/domain/model"
)

// 注文履歴（監査ログ）。書いたら変えない。
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error

	//1注文の履歴を古い順に。limit<=0なら既定値
	ListByOrder(ctx context.Context, orderID int64, limit int) ([]model.AuditLog, error)
}
